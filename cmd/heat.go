/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/goib/InputParameters"
	"github.com/notargets/goib/constrained"
	"github.com/notargets/goib/model_problems/Heat2D"
)

type HeatModel struct {
	ICFile  string
	Profile string
}

// HeatCmd represents the heat command
var HeatCmd = &cobra.Command{
	Use:   "heat",
	Short: "Heat conduction with an immersed circular isotherm",
	Long: `Heat conduction on a doubly periodic square domain with an immersed
circular boundary held at a prescribed temperature via a Lagrange multiplier`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("heat called")
		hm := &HeatModel{}
		if hm.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		hm.Profile, _ = cmd.Flags().GetString("profile")
		ip := processInput(hm)
		switch hm.Profile {
		case "cpu":
			defer profile.Start(profile.CPUProfile).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile).Stop()
		}
		RunHeat(ip)
	},
}

func processInput(hm *HeatModel) (ip *InputParameters.HeatParameters) {
	var (
		err error
	)
	if len(hm.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Heated Disk"
Kappa: 1.
FourierNumber: 0.25
FinalTime: 1.
Nx: 64
Ny: 64
CircleX: 0.5
CircleY: 0.5
CircleR: 0.25
Algorithm: IFRK2 # Can be "IFEuler"
SaddleMethod: Auto # Can be "Direct" or "CG"
BCs:
  Isothermal:
    T: 1.
    Ramp: 0.1 # ramp time for the isotherm temperature, 0 for constant
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(hm.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.HeatParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(HeatCmd)
	HeatCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Kappa\n\t- FourierNumber")
	HeatCmd.Flags().StringP("profile", "p", "", "profile the run: cpu or mem")
}

func RunHeat(ip *InputParameters.HeatParameters) {
	ip.Print()
	boundaryTemp := 1.
	rampTime := 0.1 * ip.FinalTime
	if bc, ok := ip.BCs["Isothermal"]; ok {
		if T, ok := bc["T"]; ok {
			boundaryTemp = T
		}
		if ramp, ok := bc["Ramp"]; ok {
			rampTime = ramp
		}
	}
	saddle := constrained.SaddleConfig{
		Method:        constrained.NewSaddleMethod(ip.SaddleMethod),
		Tolerance:     ip.Tolerance,
		MaxIterations: ip.MaxIterations,
	}
	c, err := Heat2D.NewHeat(ip.Nx, ip.Ny, ip.Kappa, ip.FinalTime, ip.FourierNumber,
		constrained.NewAlgorithm(ip.Algorithm), saddle,
		ip.CircleX, ip.CircleY, ip.CircleR,
		Heat2D.RampedTemp(boundaryTemp, rampTime))
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if err = c.Run(); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
}
