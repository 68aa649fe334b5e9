package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/docparse"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured fields from a document",
}

var extractOfferCmd = &cobra.Command{
	Use:   "offer <path>",
	Short: "Extract company and HR contact details from an offer letter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args[0], "offer")
	},
}

var extractRegistrationCmd = &cobra.Command{
	Use:   "registration <path>",
	Short: "Extract registry details from a registration document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args[0], "registration")
	},
}

func runExtract(cmd *cobra.Command, path, kind string) error {
	ctx := cmd.Context()

	doc, err := docparse.Parse(path)
	if err != nil {
		return eris.Wrapf(err, "parse %s", path)
	}

	env, err := initEngine(ctx, false)
	if err != nil {
		return err
	}
	defer env.Close()

	var fields map[string]any
	switch kind {
	case "offer":
		fields, err = env.Tasks.ExtractOfferLetter(ctx, doc.Content)
	case "registration":
		fields, err = env.Tasks.ExtractRegistration(ctx, doc.Content)
	}
	if err != nil {
		return eris.Wrap(err, "extract fields")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(fields)
}

func init() {
	extractCmd.AddCommand(extractOfferCmd)
	extractCmd.AddCommand(extractRegistrationCmd)
	rootCmd.AddCommand(extractCmd)
}
