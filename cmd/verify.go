package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

var (
	verifyFile        string
	verifyName        string
	verifyCountry     string
	verifyRegistryID  string
	verifyHRName      string
	verifyHREmail     string
	verifyAddress     string
	verifyLinkedIn    string
	verifyWebsites    []string
	verifyIndustry    string
	verifyUserID      string
	verifyProvisional bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a single company",
	Long:  "Runs the mandatory checks, then the optional footprint checks, and prints the final result as JSON. With --provisional only the mandatory phase runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := buildRequest()
		if err != nil {
			return err
		}

		env, err := initEngine(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Orch.Verify(ctx, req)
		if err != nil {
			return eris.Wrap(err, "verify")
		}

		if !verifyProvisional {
			result = env.Orch.Finalize(ctx, req, result)
		}

		zap.L().Info("verification complete",
			zap.String("company", req.Name),
			zap.Float64("trust_score", result.TrustScore),
			zap.String("tier", string(result.TrustTier)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// buildRequest assembles the request from --file when given, with flags
// layered on top.
func buildRequest() (model.VerificationRequest, error) {
	var req model.VerificationRequest

	if verifyFile != "" {
		data, err := os.ReadFile(verifyFile)
		if err != nil {
			return req, eris.Wrap(err, "read request file")
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, eris.Wrap(err, "parse request file")
		}
	}

	if verifyName != "" {
		req.Name = verifyName
	}
	if verifyCountry != "" {
		req.Country = verifyCountry
	}
	if verifyRegistryID != "" {
		req.RegistryID = verifyRegistryID
	}
	if verifyHRName != "" {
		req.HRName = verifyHRName
	}
	if verifyHREmail != "" {
		req.HREmail = verifyHREmail
	}
	if verifyAddress != "" {
		req.RegisteredAddress = verifyAddress
	}
	if verifyLinkedIn != "" {
		req.LinkedInURL = verifyLinkedIn
	}
	if len(verifyWebsites) > 0 {
		req.WebsiteURLs = verifyWebsites
	}
	if verifyIndustry != "" {
		req.Industry = verifyIndustry
	}
	if verifyUserID != "" {
		req.UserID = verifyUserID
	}

	return req, req.Validate()
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFile, "file", "", "YAML file with the verification request")
	verifyCmd.Flags().StringVar(&verifyName, "name", "", "company name")
	verifyCmd.Flags().StringVar(&verifyCountry, "country", "", "company country")
	verifyCmd.Flags().StringVar(&verifyRegistryID, "registry-id", "", "government registry identifier (CIN, EIN, ...)")
	verifyCmd.Flags().StringVar(&verifyHRName, "hr-name", "", "HR contact name")
	verifyCmd.Flags().StringVar(&verifyHREmail, "hr-email", "", "HR contact email")
	verifyCmd.Flags().StringVar(&verifyAddress, "address", "", "registered address")
	verifyCmd.Flags().StringVar(&verifyLinkedIn, "linkedin", "", "company LinkedIn URL")
	verifyCmd.Flags().StringSliceVar(&verifyWebsites, "website", nil, "company website URL (repeatable)")
	verifyCmd.Flags().StringVar(&verifyIndustry, "industry", "", "company industry")
	verifyCmd.Flags().StringVar(&verifyUserID, "user", "", "requesting user ID; enables persistence")
	verifyCmd.Flags().BoolVar(&verifyProvisional, "provisional", false, "stop after the mandatory phase")
	rootCmd.AddCommand(verifyCmd)
}
