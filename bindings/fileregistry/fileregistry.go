// Package fileregistry contains Go bindings for the FileRegistry contract
// in contracts/FileRegistry.sol.
package fileregistry

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FileRegistryABI is the input ABI used to generate the binding from.
const FileRegistryABI = `[
	{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},
	{"anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"sender","type":"address"},
		{"indexed":false,"internalType":"bytes32","name":"fileHash","type":"bytes32"},
		{"indexed":false,"internalType":"uint256","name":"index","type":"uint256"}
	],"name":"FileAdded","type":"event"},
	{"inputs":[{"internalType":"bytes32","name":"fileHash","type":"bytes32"}],"name":"addFile","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"fileCount","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getFiles","outputs":[{"internalType":"bytes32[]","name":"","type":"bytes32[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

var errEventSignatureMismatch = errors.New("event signature mismatch")

// ParsedABI returns the parsed FileRegistry ABI.
func ParsedABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(FileRegistryABI))
}

// FileRegistry is an auto-bound Go binding around a FileRegistry contract.
type FileRegistry struct {
	FileRegistryCaller     // Read-only binding to the contract
	FileRegistryTransactor // Write-only binding to the contract
	abi                    abi.ABI
}

// FileRegistryCaller is a read-only Go binding around a FileRegistry contract.
type FileRegistryCaller struct {
	contract *bind.BoundContract
}

// FileRegistryTransactor is a write-only Go binding around a FileRegistry contract.
type FileRegistryTransactor struct {
	contract *bind.BoundContract
}

// NewFileRegistry creates a new instance of FileRegistry, bound to a specific deployed contract.
func NewFileRegistry(address common.Address, backend bind.ContractBackend) (*FileRegistry, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(address, parsed, backend, backend, backend)
	return &FileRegistry{
		FileRegistryCaller:     FileRegistryCaller{contract: contract},
		FileRegistryTransactor: FileRegistryTransactor{contract: contract},
		abi:                    parsed,
	}, nil
}

// NewFileRegistryCaller creates a new read-only instance of FileRegistry, bound to a specific deployed contract.
func NewFileRegistryCaller(address common.Address, caller bind.ContractCaller) (*FileRegistryCaller, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(address, parsed, caller, nil, nil)
	return &FileRegistryCaller{contract: contract}, nil
}

// Owner is a free data retrieval call binding the contract method 0x8da5cb5b.
//
// Solidity: function owner() view returns(address)
func (_FileRegistry *FileRegistryCaller) Owner(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	err := _FileRegistry.contract.Call(opts, &out, "owner")
	if err != nil {
		return *new(common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return out0, err
}

// GetFiles is a free data retrieval call binding the contract method getFiles.
//
// Solidity: function getFiles() view returns(bytes32[])
func (_FileRegistry *FileRegistryCaller) GetFiles(opts *bind.CallOpts) ([][32]byte, error) {
	var out []interface{}
	err := _FileRegistry.contract.Call(opts, &out, "getFiles")
	if err != nil {
		return *new([][32]byte), err
	}

	out0 := *abi.ConvertType(out[0], new([][32]byte)).(*[][32]byte)
	return out0, err
}

// FileCount is a free data retrieval call binding the contract method fileCount.
//
// Solidity: function fileCount() view returns(uint256)
func (_FileRegistry *FileRegistryCaller) FileCount(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _FileRegistry.contract.Call(opts, &out, "fileCount")
	if err != nil {
		return *new(*big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return out0, err
}

// AddFile is a paid mutator transaction binding the contract method addFile.
//
// Solidity: function addFile(bytes32 fileHash) returns()
func (_FileRegistry *FileRegistryTransactor) AddFile(opts *bind.TransactOpts, fileHash [32]byte) (*types.Transaction, error) {
	return _FileRegistry.contract.Transact(opts, "addFile", fileHash)
}

// FileRegistryFileAdded represents a FileAdded event raised by the FileRegistry contract.
type FileRegistryFileAdded struct {
	Sender   common.Address
	FileHash [32]byte
	Index    *big.Int
	Raw      types.Log // Blockchain specific contextual infos
}

// ParseFileAdded is a log parse operation binding the contract event FileAdded.
//
// Solidity: event FileAdded(address indexed sender, bytes32 fileHash, uint256 index)
func (_FileRegistry *FileRegistry) ParseFileAdded(log types.Log) (*FileRegistryFileAdded, error) {
	event := _FileRegistry.abi.Events["FileAdded"]
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return nil, errEventSignatureMismatch
	}

	out := new(FileRegistryFileAdded)
	if len(log.Data) > 0 {
		if err := _FileRegistry.abi.UnpackIntoInterface(out, "FileAdded", log.Data); err != nil {
			return nil, err
		}
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopics(out, indexed, log.Topics[1:]); err != nil {
		return nil, err
	}

	out.Raw = log
	return out, nil
}
