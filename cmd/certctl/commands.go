package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
	"certgen/internal/certificate/normalize"
	jwttoken "certgen/internal/jwt_token"
)

func generateCommand(opts *globalOptions) *cobra.Command {
	var (
		org, certType, domain, activity, duration, outDir string
	)
	cmd := &cobra.Command{
		Use:   "generate <roster.csv>",
		Short: "Generate one certificate per roster row and write the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			rows, err := normalize.ReadCSV(f)
			if err != nil {
				return err
			}

			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.service.GenerateBatch(cmd.Context(), models.BatchRequest{
				OwnerID:         e.owner,
				Organization:    org,
				Domain:          domain,
				CertificateType: certType,
				ActivityType:    activity,
				Duration:        duration,
				Rows:            rows,
			})
			if err != nil {
				return err
			}
			return writeReport(cmd, report, outDir)
		},
	}
	cmd.Flags().StringVar(&org, "org", string(catalog.OrgDLithe), "issuing organization")
	cmd.Flags().StringVar(&certType, "type", string(models.TypeProvisional), "provisional or final")
	cmd.Flags().StringVar(&domain, "domain", "", "domain applied to every row, overriding the roster")
	cmd.Flags().StringVar(&activity, "activity", "", "activity type printed on the certificate")
	cmd.Flags().StringVar(&duration, "duration", "", "duration printed on the certificate")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory the archive is written to")
	return cmd
}

func approvedCommand(opts *globalOptions) *cobra.Command {
	var org, activity, duration, outDir string
	cmd := &cobra.Command{
		Use:   "approved",
		Short: "Render final certificates for every reviewed record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.service.GenerateApproved(cmd.Context(), models.ApprovedRequest{
				OwnerID:      e.owner,
				Organization: org,
				ActivityType: activity,
				Duration:     duration,
			})
			if err != nil {
				return err
			}
			return writeReport(cmd, report, outDir)
		},
	}
	cmd.Flags().StringVar(&org, "org", string(catalog.OrgDLithe), "issuing organization")
	cmd.Flags().StringVar(&activity, "activity", "", "activity type printed on the certificate")
	cmd.Flags().StringVar(&duration, "duration", "", "duration printed on the certificate")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory the archive is written to")
	return cmd
}

func recordsCommand(opts *globalOptions) *cobra.Command {
	var org, status string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List stored records by review status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			records, err := e.service.ListRecords(cmd.Context(), e.owner, org, status)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&org, "org", string(catalog.OrgDLithe), "organization table to read")
	cmd.Flags().StringVar(&status, "status", string(models.StatusPendingReview), "review status to list")
	return cmd
}

func reviewCommand(opts *globalOptions) *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "review <certificate-id>...",
		Short: "Mark records as reviewed so they are included in the approved bundle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			for _, certificateID := range args {
				if err := e.store.SetStatus(cmd.Context(), catalog.OrgKey(org), certificateID, models.StatusReviewCompleted); err != nil {
					return fmt.Errorf("review %s: %w", certificateID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", certificateID, models.StatusReviewCompleted)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", string(catalog.OrgDLithe), "organization table to update")
	return cmd
}

func tokenCommand(opts *globalOptions) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			owner, err := opts.ownerID()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, jwttoken.DefaultAudience)
			token, err := svc.GenerateToken(owner, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default $CERTGEN_TOKEN_TTL)")
	return cmd
}

func writeReport(cmd *cobra.Command, report *models.BatchReport, outDir string) error {
	for _, f := range report.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "row %d (%s): %s\n", f.Row, f.Name, f.Message)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outDir, report.ArchiveName)
	if err := os.WriteFile(path, report.Archive, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d generated, %d failed: %s\n", len(report.Generated), len(report.Failures), path)
	return nil
}

func printRecords(w io.Writer, records []models.CertificateRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CERTIFICATE ID\tNAME\tDOMAIN\tSTATUS\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.CertificateID, r.Name.String(), r.Domain.String(), r.Status, r.CreatedAt.Format(time.DateTime))
	}
	return tw.Flush()
}
