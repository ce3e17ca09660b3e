package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/sajili/core/report"
)

func (cli *commandLine) reportCmd() *cobra.Command {
	var filter report.Filter
	cmd := &cobra.Command{
		Use:   "report COURSE_CODE",
		Short: "Print the attendance report of a course as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			crs, err := cli.crsSvc.GetByCode(ctx, args[0])
			if err != nil {
				return err
			}
			filter.Clean()
			rep, err := cli.rptSvc.CourseReport(ctx, crs.ID, filter)
			if err != nil {
				return err
			}
			return report.WriteCSV(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&filter.Level, "level", "", "only students of this level (defaults to the course level)")
	cmd.Flags().StringVar(&filter.Department, "department", "", "only students of this department")
	return cmd
}
