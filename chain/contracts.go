package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ERC20 ABI JSON for the transferFrom function
const erc20ABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "value", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	}
]`

// ERC721 ABI JSON for the safeTransferFrom function
const erc721ABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "tokenId", "type": "uint256"}
		],
		"name": "safeTransferFrom",
		"outputs": [],
		"type": "function"
	}
]`

// ERC1155 ABI JSON for the safeTransferFrom function
const erc1155ABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "id", "type": "uint256"},
			{"name": "amount", "type": "uint256"},
			{"name": "data", "type": "bytes"}
		],
		"name": "safeTransferFrom",
		"outputs": [],
		"type": "function"
	}
]`

// ERC165/ERC2981 ABI JSON for the royalty support probe and lookup
const royaltyABIJSON = `[
	{
		"constant": true,
		"inputs": [{"name": "interfaceId", "type": "bytes4"}],
		"name": "supportsInterface",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "salePrice", "type": "uint256"}
		],
		"name": "royaltyInfo",
		"outputs": [
			{"name": "receiver", "type": "address"},
			{"name": "royaltyAmount", "type": "uint256"}
		],
		"type": "function"
	}
]`

// ERC2981InterfaceID is the ERC165 id for the royalty standard.
var ERC2981InterfaceID = [4]byte{0x2a, 0x55, 0x20, 0x5a}

// GetERC20ABI returns the parsed ERC20 ABI
func GetERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse ERC20 ABI: " + err.Error())
	}
	return parsed
}

// GetERC721ABI returns the parsed ERC721 ABI
func GetERC721ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc721ABIJSON))
	if err != nil {
		panic("failed to parse ERC721 ABI: " + err.Error())
	}
	return parsed
}

// GetERC1155ABI returns the parsed ERC1155 ABI
func GetERC1155ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc1155ABIJSON))
	if err != nil {
		panic("failed to parse ERC1155 ABI: " + err.Error())
	}
	return parsed
}

// GetRoyaltyABI returns the parsed ERC165/ERC2981 ABI
func GetRoyaltyABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(royaltyABIJSON))
	if err != nil {
		panic("failed to parse royalty ABI: " + err.Error())
	}
	return parsed
}
