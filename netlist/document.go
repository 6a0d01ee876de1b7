package netlist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"loadflow/control"
	"loadflow/element"
	"loadflow/types"
)

// Document 网络文件顶层结构
type Document struct {
	Version            int                     `json:"version"`
	IsMultiphase       bool                    `json:"is_multiphase"`
	Buses              []BusData               `json:"buses"`
	Lines              []LineData              `json:"lines"`
	Transformers       []TransformerData       `json:"transformers"`
	Switches           []SwitchData            `json:"switches"`
	Loads              []LoadData              `json:"loads"`
	Sources            []SourceData            `json:"sources"`
	LinesParams        []LineParamsData        `json:"lines_params"`
	TransformersParams []TransformerParamsData `json:"transformers_params"`
}

// BusData 母线
type BusData struct {
	ID               string      `json:"id"`
	MinVoltage       float64     `json:"min_voltage,omitempty"`
	MaxVoltage       float64     `json:"max_voltage,omitempty"`
	InitialPotential *Complex    `json:"initial_potential,omitempty"`
	Results          *BusResults `json:"results,omitempty"`
}

type BusResults struct {
	Potential Complex `json:"potential"`
}

// SourceData 电压源
type SourceData struct {
	ID      string         `json:"id"`
	Bus     string         `json:"bus"`
	Voltage Complex        `json:"voltage"`
	Results *SourceResults `json:"results,omitempty"`
}

type SourceResults struct {
	Current   Complex `json:"current"`
	Potential Complex `json:"potential"`
}

// BranchResults 支路两端电流
type BranchResults struct {
	Current1 Complex `json:"current1"`
	Current2 Complex `json:"current2"`
}

// LineData 线路
type LineData struct {
	ID         string         `json:"id"`
	Bus1       string         `json:"bus1"`
	Bus2       string         `json:"bus2"`
	Length     float64        `json:"length"`
	ParamsID   string         `json:"params_id"`
	MaxLoading float64        `json:"max_loading,omitempty"`
	Results    *BranchResults `json:"results,omitempty"`
}

// TransformerData 变压器
type TransformerData struct {
	ID         string         `json:"id"`
	Bus1       string         `json:"bus1"`
	Bus2       string         `json:"bus2"`
	ParamsID   string         `json:"params_id"`
	Tap        float64        `json:"tap,omitempty"`
	MaxLoading float64        `json:"max_loading,omitempty"`
	Results    *BranchResults `json:"results,omitempty"`
}

// SwitchData 开关
type SwitchData struct {
	ID      string         `json:"id"`
	Bus1    string         `json:"bus1"`
	Bus2    string         `json:"bus2"`
	Results *BranchResults `json:"results,omitempty"`
}

// LoadData 负荷, 柔性负荷写作带 flexible_param 的功率负荷
type LoadData struct {
	ID            string                     `json:"id"`
	Bus           string                     `json:"bus"`
	Type          string                     `json:"type"`
	Powers        *Complex                   `json:"powers,omitempty"`
	Currents      *Complex                   `json:"currents,omitempty"`
	Impedances    *Complex                   `json:"impedances,omitempty"`
	Power         *Complex                   `json:"power,omitempty"`
	Current       *Complex                   `json:"current,omitempty"`
	Impedance     *Complex                   `json:"impedance,omitempty"`
	FlexibleParam *control.FlexibleParameter `json:"flexible_param,omitempty"`
	Results       *LoadResults               `json:"results,omitempty"`
}

type LoadResults struct {
	Current       Complex  `json:"current"`
	Potential     Complex  `json:"potential"`
	FlexiblePower *Complex `json:"flexible_power,omitempty"`
}

// LineParamsData 线路参数
type LineParamsData struct {
	ID            string           `json:"id"`
	ZLine         Complex          `json:"z_line"`
	YShunt        *Complex         `json:"y_shunt,omitempty"`
	MaxCurrent    float64          `json:"max_current,omitempty"`
	LineType      element.LineType `json:"line_type,omitempty"`
	ConductorType string           `json:"conductor_type,omitempty"`
	InsulatorType string           `json:"insulator_type,omitempty"`
	Section       float64          `json:"section,omitempty"`
}

// TransformerParamsData 变压器参数
type TransformerParamsData struct {
	ID   string  `json:"id"`
	Type string  `json:"type"`
	Sn   float64 `json:"sn"`
	Up   float64 `json:"up"`
	Us   float64 `json:"us"`
	Z2   Complex `json:"z2"`
	Ym   Complex `json:"ym"`
}

// Read 解析网络文件并检查版本
func Read(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("解析网络文件失败: %w", err)
	}
	if doc.Version != types.NetworkJSONVersion {
		return nil, types.NewConfigurationError("network", "", fmt.Sprintf("不支持的文件版本 %d, 需要 %d", doc.Version, types.NetworkJSONVersion))
	}
	if doc.IsMultiphase {
		return nil, types.NewConfigurationError("network", "", "不支持多相网络")
	}
	return &doc, nil
}

// Write 输出缩进格式的网络文件
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadFile 读取网络文件
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// WriteFile 写入网络文件
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = Write(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
