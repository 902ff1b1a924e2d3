package main

import (
	"fmt"

	"github.com/bittoy/corpuspipe/pathconf"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the generated JSON Schema for this corpus's declared config keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		params := make([]pathconf.ConfigParam, 0, len(e.reg.ConfigDecls()))
		for _, cd := range e.reg.ConfigDecls() {
			params = append(params, pathconf.ConfigParam{
				Key:         cd.Name,
				Description: cd.Description,
				Default:     cd.Default,
				Type:        cd.Type,
				Choices:     cd.Choices,
				Min:         cd.Min,
				Max:         cd.Max,
				Pattern:     cd.Pattern,
			})
		}
		doc, err := pathconf.Generate(params)
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
