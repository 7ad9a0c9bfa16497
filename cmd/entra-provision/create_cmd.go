package main

import (
	"github.com/spf13/cobra"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

type createFlags struct {
	csvPath      string
	domainSuffix string
}

func newCreateCmd(g *globalOptions) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create every row as a member user",
		Long: "Create every row as a member user, generating a temporary password when none is given.\n\n" +
			"Columns: UserPrincipalName and DisplayName (required), MailNickname, Password, GivenName, Surname,\n" +
			"UsageLocation, JobTitle, Department, ForceChangePassword, AccountEnabled, GroupId.\n\n" +
			"Generated passwords are written to the TempPassword column of the result log. Protect that file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveRunOptions(cmd, g, func(o *runOptions) {
				flags := cmd.Flags()
				if flags.Changed("csv") {
					o.CSVPath = f.csvPath
				}
				if flags.Changed("domain-suffix") {
					o.DomainSuffix = f.domainSuffix
				}
			})
			if err != nil {
				return err
			}
			return runPipeline(cmd, provisioning.PipelineCreate, g, opts)
		},
	}

	cmd.Flags().StringVar(&f.csvPath, "csv", "", "Input CSV or XLSX file")
	cmd.Flags().StringVar(&f.domainSuffix, "domain-suffix", "", "Domain appended to UserPrincipalName values without @")
	return cmd
}
