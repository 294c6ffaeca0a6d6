package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type HeatParameters struct {
	Title         string                        `yaml:"Title"`
	Kappa         float64                       `yaml:"Kappa"`
	FourierNumber float64                       `yaml:"FourierNumber"`
	FinalTime     float64                       `yaml:"FinalTime"`
	Nx            int                           `yaml:"Nx"`
	Ny            int                           `yaml:"Ny"`
	CircleX       float64                       `yaml:"CircleX"`
	CircleY       float64                       `yaml:"CircleY"`
	CircleR       float64                       `yaml:"CircleR"`
	Algorithm     string                        `yaml:"Algorithm"`    // IFEuler or IFRK2
	SaddleMethod  string                        `yaml:"SaddleMethod"` // Auto, Direct or CG
	MaxIterations int                           `yaml:"MaxIterations"`
	Tolerance     float64                       `yaml:"Tolerance"`
	BCs           map[string]map[string]float64 `yaml:"BCs"` // First key is BC name/type, second is parameter name
}

func (ip *HeatParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *HeatParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= Kappa\n", ip.Kappa)
	fmt.Printf("%8.5f\t\t= FourierNumber\n", ip.FourierNumber)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("[%d x %d]\t\t= Grid\n", ip.Nx, ip.Ny)
	fmt.Printf("[%s]\t\t\t= Algorithm\n", ip.Algorithm)
	fmt.Printf("[%s]\t\t\t= Saddle Method\n", ip.SaddleMethod)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
