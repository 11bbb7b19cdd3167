package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// projectsCmd lists the projects accepted by validation.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List known projects",
	Long: `List the projects a widget may display: the built-in set plus any
declared in the config file.

Example:
  floradex projects
  floradex projects -c floradex.yaml --json`,
	RunE: runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)

	projectsCmd.Flags().StringP("config", "c", "", "path to config file")
}

func runProjects(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	projects := reg.Projects().All()

	if viper.GetBool("json") {
		return printJSON(cmd.OutOrStdout(), projects)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"ID", "Name", "Description"})
	for _, p := range projects {
		tw.AppendRow(table.Row{p.ID, p.Name, p.Description})
	}
	tw.Render()
	return nil
}
