package main

import (
	"github.com/spf13/cobra"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

type inviteFlags struct {
	csvPath               string
	sendInvitationMessage bool
	message               string
	redirectURL           string
}

func newInviteCmd(g *globalOptions) *cobra.Command {
	var f inviteFlags

	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite every row's Email as a guest user",
		Long: "Invite every row's Email as a B2B guest user.\n\n" +
			"Columns: Email (required), Name, DisplayName, Message, RedirectUrl, GroupId.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveRunOptions(cmd, g, func(o *runOptions) {
				flags := cmd.Flags()
				if flags.Changed("csv") {
					o.CSVPath = f.csvPath
				}
				if flags.Changed("send-invitation-message") {
					o.SendInvitationMessage = f.sendInvitationMessage
				}
				if flags.Changed("message") {
					o.CustomMessage = f.message
				}
				if flags.Changed("redirect-url") {
					o.RedirectURL = f.redirectURL
				}
			})
			if err != nil {
				return err
			}
			return runPipeline(cmd, provisioning.PipelineInvite, g, opts)
		},
	}

	cmd.Flags().StringVar(&f.csvPath, "csv", "", "Input CSV or XLSX file")
	cmd.Flags().BoolVar(&f.sendInvitationMessage, "send-invitation-message", true, "Have Entra email the invitation")
	cmd.Flags().StringVar(&f.message, "message", "", "Default invitation message body")
	cmd.Flags().StringVar(&f.redirectURL, "redirect-url", provisioning.DefaultRedirectURL, "Where guests land after redeeming")
	return cmd
}
