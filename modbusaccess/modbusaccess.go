package modbusaccess

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type represents the different types of data that can be held in modbus registers.
type Type struct {
	name          string                   // the name of the data type
	dataLength    uint16                   // the number of underlying bytes to represent the data type
	fromBytesFunc func([]byte) interface{} // function to convert the bytes to the concrete data type (used to read from modbus)
	toBytesFunc   func(interface{}) []byte // function to convert the concrete data type into bytes (used to write to modbus)
}

// FloatType represents the 32 bit float data type. Values are float64 on the Go side.
var FloatType = Type{
	name:       "float",
	dataLength: 4,
	fromBytesFunc: func(bytes []byte) interface{} {
		valUint32 := binary.BigEndian.Uint32(bytes)
		valFloat32 := math.Float32frombits(valUint32)
		return float64(valFloat32)
	},
	toBytesFunc: func(val interface{}) []byte {
		bytes := make([]byte, 4)
		binary.BigEndian.PutUint32(bytes, math.Float32bits(float32(val.(float64))))
		return bytes
	},
}

// Int32Type represents the 32 bit signed integer data type on Modbus.
var Int32Type = Type{
	name:       "int32",
	dataLength: 4,
	fromBytesFunc: func(bytes []byte) interface{} {
		valUint32 := binary.BigEndian.Uint32(bytes)
		valInt32 := int32(valUint32)
		return valInt32
	},
	toBytesFunc: func(val interface{}) []byte {
		bytes := make([]byte, 4)
		binary.BigEndian.PutUint32(bytes, uint32(val.(int32)))
		return bytes
	},
}

// Uint16Type represents the 16 bit unsigned integer data type on Modbus.
var Uint16Type = Type{
	name:       "uint16",
	dataLength: 2,
	fromBytesFunc: func(bytes []byte) interface{} {
		valUint16 := binary.BigEndian.Uint16(bytes)
		return valUint16
	},
	toBytesFunc: func(val interface{}) []byte {
		bytes := make([]byte, 2)
		binary.BigEndian.PutUint16(bytes, val.(uint16))
		return bytes
	},
}

func (t Type) String() string {
	return t.name
}

// NumRegisters returns how many 16 bit registers a value of this type occupies.
func (t Type) NumRegisters() uint16 {
	return t.dataLength / 2
}

// Encode converts a value into its register bytes. The value must be of the type's Go type (float64 for
// FloatType, int32 for Int32Type, uint16 for Uint16Type).
func (t Type) Encode(val interface{}) ([]byte, error) {
	if t.toBytesFunc == nil {
		return nil, fmt.Errorf("type %s cannot be encoded", t.name)
	}
	return t.toBytesFunc(val), nil
}

// Decode converts register bytes into the type's Go value.
func (t Type) Decode(bytes []byte) (interface{}, error) {
	if len(bytes) < int(t.dataLength) {
		return nil, fmt.Errorf("type %s needs %d bytes, got %d", t.name, t.dataLength, len(bytes))
	}
	return t.fromBytesFunc(bytes[:t.dataLength]), nil
}

// Scaler can be any object used to help scale modbus values.
// For trivial scaling scenarios (e.g. 'divide by 1000') this is not really required, but for more complicated scaling
// scenarios (e.g. 'map an enumerated code onto a name') it can be neccesary to retrieve state from the `scaler`.
type Scaler interface{}

// valueScalingFunc is a prototype for a function that scales a modbus value.
type valueScalingFunc func(Scaler, interface{}) interface{}

// Register holds a value on the modbus slave at the given address
type Register struct {
	StartAddr   uint16
	DataType    Type
	ScalingFunc valueScalingFunc // a function to scale the recieved value to get it's 'true' value (transmitting scaled values is common in Modbus)
}

// RegisterBlock represents a contigous block of modbus registers that are read in one chunk.
type RegisterBlock struct {
	Name         string              // name of the block used for context/logging
	StartAddr    uint16              // the first register address of the block
	NumRegisters uint16              // the number of registers in this block (each register is two bytes)
	Registers    map[string]Register // details of all the registers of interest in this block, keyed by unique name
}

// BytesToRegisters packs big-endian bytes into 16 bit register values.
func BytesToRegisters(bytes []byte) []uint16 {
	registers := make([]uint16, len(bytes)/2)
	for i := range registers {
		registers[i] = binary.BigEndian.Uint16(bytes[i*2 : i*2+2])
	}
	return registers
}

// RegistersToBytes unpacks 16 bit register values into big-endian bytes.
func RegistersToBytes(registers []uint16) []byte {
	bytes := make([]byte, len(registers)*2)
	for i, val := range registers {
		binary.BigEndian.PutUint16(bytes[i*2:i*2+2], val)
	}
	return bytes
}
