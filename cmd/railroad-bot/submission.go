package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"blue-railroad-bot/internal/submission"
)

var (
	submissionID int
	ipfsCID      string
	wallet       string
	tokenID      int64
)

var updateSubmissionCmd = &cobra.Command{
	Use:     "update-submission",
	Short:   "Set the IPFS CID of a submission page",
	PreRunE: requireCredentials,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := submission.NewUpdater(newWikiClient(), dryRun, logger)
		res, err := u.SetCID(cmd.Context(), submissionID, ipfsCID)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var markMintedCmd = &cobra.Command{
	Use:     "mark-minted",
	Short:   "Mark a submission as minted",
	PreRunE: requireCredentials,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := submission.NewUpdater(newWikiClient(), dryRun, logger)
		res, err := u.MarkMinted(cmd.Context(), submissionID, wallet, tokenID)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

func init() {
	updateSubmissionCmd.Flags().IntVar(&submissionID, "id", 0, "Submission number")
	updateSubmissionCmd.Flags().StringVar(&ipfsCID, "ipfs-cid", "", "IPFS CID of the pinned video")
	_ = updateSubmissionCmd.MarkFlagRequired("id")
	_ = updateSubmissionCmd.MarkFlagRequired("ipfs-cid")

	markMintedCmd.Flags().IntVar(&submissionID, "id", 0, "Submission number")
	markMintedCmd.Flags().StringVar(&wallet, "wallet", "", "Participant wallet the token was minted to")
	markMintedCmd.Flags().Int64Var(&tokenID, "token-id", 0, "Minted token id")
	_ = markMintedCmd.MarkFlagRequired("id")
	_ = markMintedCmd.MarkFlagRequired("wallet")
	_ = markMintedCmd.MarkFlagRequired("token-id")
}

func printResult(res *submission.Result) {
	switch {
	case res.Applied:
		fmt.Printf("%s: %s (%s)\n", res.PageName, res.Action, res.Summary)
	case dryRun:
		fmt.Printf("%s: would %s (%s)\n", res.PageName, res.Action, res.Summary)
	default:
		fmt.Printf("%s: %s\n", res.PageName, res.Action)
	}
}
