package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas [name]",
	Short: "List registered provider schemas, or show one as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer e.Close()

		if len(args) == 1 {
			sch, err := e.Registry.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(sch)
		}

		for _, name := range e.Registry.Names() {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
}
