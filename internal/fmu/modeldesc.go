// Package fmu adapts pre-compiled co-simulation units (FMUs) to the
// SimulationEntity contract. Parameters are addressed inside the unit
// by value reference; this package owns the name -> value-reference
// translation and the typed getter/setter dispatch. Loading the unit's
// binary itself is the job of an external Loader.
package fmu

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/san-kum/cosim/internal/cosim"
)

// VariableType is the native scalar type of an FMU variable.
type VariableType string

const (
	TypeReal        VariableType = "Real"
	TypeInteger     VariableType = "Integer"
	TypeBoolean     VariableType = "Boolean"
	TypeString      VariableType = "String"
	TypeEnumeration VariableType = "Enumeration"
)

// Dtype maps the native variable type onto the scalar dtypes the
// recorder and wiring validation work with.
func (t VariableType) Dtype() (cosim.Dtype, error) {
	switch t {
	case TypeReal:
		return cosim.DtypeReal, nil
	case TypeInteger, TypeEnumeration:
		return cosim.DtypeInt, nil
	case TypeBoolean:
		return cosim.DtypeBool, nil
	case TypeString:
		return cosim.DtypeString, nil
	}
	return 0, fmt.Errorf("fmu: unsupported variable type %q", t)
}

// ScalarVariable is one entry of the model description's variable table.
type ScalarVariable struct {
	Name           string
	ValueReference uint32
	Causality      string
	Type           VariableType
	Unit           string
}

// ModelDescription is the static interface description shipped inside
// an FMU archive.
type ModelDescription struct {
	FMIVersion      string
	ModelName       string
	GUID            string
	ModelIdentifier string
	variables       map[string]*ScalarVariable
	order           []string
}

// Variable looks a variable up by name.
func (md *ModelDescription) Variable(name string) (*ScalarVariable, bool) {
	v, ok := md.variables[name]
	return v, ok
}

// VariableNames returns the variable names in declaration order.
func (md *ModelDescription) VariableNames() []string {
	names := make([]string, len(md.order))
	copy(names, md.order)
	return names
}

type xmlTypeTag struct {
	Unit string `xml:"unit,attr"`
}

type xmlScalarVariable struct {
	Name           string      `xml:"name,attr"`
	ValueReference uint32      `xml:"valueReference,attr"`
	Causality      string      `xml:"causality,attr"`
	Real           *xmlTypeTag `xml:"Real"`
	Integer        *xmlTypeTag `xml:"Integer"`
	Boolean        *xmlTypeTag `xml:"Boolean"`
	String         *xmlTypeTag `xml:"String"`
	Enumeration    *xmlTypeTag `xml:"Enumeration"`
}

type xmlModelDescription struct {
	XMLName      xml.Name `xml:"fmiModelDescription"`
	FMIVersion   string   `xml:"fmiVersion,attr"`
	ModelName    string   `xml:"modelName,attr"`
	GUID         string   `xml:"guid,attr"`
	CoSimulation struct {
		ModelIdentifier string `xml:"modelIdentifier,attr"`
	} `xml:"CoSimulation"`
	ModelVariables struct {
		Variables []xmlScalarVariable `xml:"ScalarVariable"`
	} `xml:"ModelVariables"`
}

const descriptionFile = "modelDescription.xml"

// ReadModelDescription extracts and parses modelDescription.xml from an
// FMU archive.
func ReadModelDescription(fmuPath string) (*ModelDescription, error) {
	archive, err := zip.OpenReader(fmuPath)
	if err != nil {
		return nil, fmt.Errorf("fmu: open %s: %w", fmuPath, err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != descriptionFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return parseModelDescription(rc)
	}
	return nil, fmt.Errorf("fmu: %s has no %s", fmuPath, descriptionFile)
}

func parseModelDescription(r io.Reader) (*ModelDescription, error) {
	var raw xmlModelDescription
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("fmu: parse %s: %w", descriptionFile, err)
	}

	md := &ModelDescription{
		FMIVersion:      raw.FMIVersion,
		ModelName:       raw.ModelName,
		GUID:            raw.GUID,
		ModelIdentifier: raw.CoSimulation.ModelIdentifier,
		variables:       make(map[string]*ScalarVariable, len(raw.ModelVariables.Variables)),
	}
	for _, v := range raw.ModelVariables.Variables {
		sv := &ScalarVariable{
			Name:           v.Name,
			ValueReference: v.ValueReference,
			Causality:      v.Causality,
		}
		switch {
		case v.Real != nil:
			sv.Type = TypeReal
			sv.Unit = v.Real.Unit
		case v.Integer != nil:
			sv.Type = TypeInteger
		case v.Boolean != nil:
			sv.Type = TypeBoolean
		case v.String != nil:
			sv.Type = TypeString
		case v.Enumeration != nil:
			sv.Type = TypeEnumeration
		default:
			return nil, fmt.Errorf("fmu: variable %q has no type element", v.Name)
		}
		if _, dup := md.variables[v.Name]; dup {
			return nil, fmt.Errorf("fmu: duplicate variable %q", v.Name)
		}
		md.variables[v.Name] = sv
		md.order = append(md.order, v.Name)
	}
	return md, nil
}
