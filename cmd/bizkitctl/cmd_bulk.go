package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bizkit/internal/llm"
	"bizkit/internal/prompt"
	"bizkit/internal/service"
	"bizkit/pkg/circuitbreaker"
)

var (
	bulkTopicsFile string
	bulkType       string
	bulkTone       string
	bulkFallback   bool
)

// newBulkService builds the email service from config. A missing Gemini key
// leaves the generator nil so every topic fails with "not configured".
var newBulkService = func(cmd *cobra.Command) (*service.EmailService, *zap.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	var gen llm.Generator
	if g, err := llm.NewGemini(cmd.Context(), cfg.Gemini.APIKey, cfg.Gemini.Model); err != nil {
		log.Warn("Gemini not configured", zap.Error(err))
	} else {
		cb := circuitbreaker.NewCircuitBreaker(llm.BreakerConfig(llm.ProviderGemini, log))
		gen = llm.Guard(llm.ProviderGemini, g, cb)
	}
	return service.NewEmailService(gen, cfg.Gemini.Model, cfg.Bulk.Delay, log), log, nil
}

var bulkEmailsCmd = &cobra.Command{
	Use:   "bulk-emails",
	Short: "Generate one marketing email per topic and print the results as JSON",
	Long: `Reads topics from --topics-file, one per line (blank lines and lines starting
with # are skipped), and generates emails one at a time with the configured delay.

With --fallback, topics that fail to generate get the static fallback email.`,
	RunE: runBulkEmails,
}

func init() {
	bulkEmailsCmd.Flags().StringVar(&bulkTopicsFile, "topics-file", "", "file with one topic per line, - for stdin (required)")
	bulkEmailsCmd.Flags().StringVar(&bulkType, "type", "promotional", "email type")
	bulkEmailsCmd.Flags().StringVar(&bulkTone, "tone", "professional", "email tone")
	bulkEmailsCmd.Flags().BoolVar(&bulkFallback, "fallback", false, "fill failed topics with the fallback email")
	_ = bulkEmailsCmd.MarkFlagRequired("topics-file")
}

func readTopics(r io.Reader) ([]string, error) {
	var topics []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	return topics, sc.Err()
}

func runBulkEmails(cmd *cobra.Command, _ []string) error {
	var in io.Reader = cmd.InOrStdin()
	if bulkTopicsFile != "-" {
		f, err := os.Open(bulkTopicsFile)
		if err != nil {
			return fmt.Errorf("failed to open topics file: %w", err)
		}
		defer f.Close()
		in = f
	}
	topics, err := readTopics(in)
	if err != nil {
		return fmt.Errorf("failed to read topics: %w", err)
	}

	svc, log, err := newBulkService(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	results, genErr := svc.GenerateBulk(cmd.Context(), topics, bulkType, bulkTone)
	if results == nil && genErr != nil {
		return genErr
	}

	if bulkFallback {
		for i, r := range results {
			if r.Success {
				continue
			}
			email := service.Fallback(prompt.EmailRequest{Topic: r.Topic, Type: bulkType, Tone: bulkTone})
			results[i].Content = &service.EmailContent{GeneratedEmail: email, Validation: service.Validate(email)}
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}
	return genErr
}
