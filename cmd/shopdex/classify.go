package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/usecase/classify"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
)

// classifyCmd routes a query offline with the rules classifier.
func classifyCmd() *cobra.Command {
	var vocabPath string

	cmd := &cobra.Command{
		Use:   "classify <query>",
		Short: "Show how a query would be routed",
		Long:  "Classifies a query with the rules classifier. No backend or model is contacted.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadVocabulary(vocabPath)
			if err != nil {
				return err
			}
			a := classify.New(v).Classify(strings.Join(args, " "))
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), a)
			}
			printAnalysis(cmd.OutOrStdout(), a)
			return nil
		},
	}

	cmd.Flags().StringVar(&vocabPath, "vocabulary", "", "Vocabulary YAML file (default: built-in)")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

// conceptsCmd extracts dietary and occasion concepts offline.
func conceptsCmd() *cobra.Command {
	var vocabPath string

	cmd := &cobra.Command{
		Use:   "concepts <query>",
		Short: "Extract dietary and occasion concepts from a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadVocabulary(vocabPath)
			if err != nil {
				return err
			}
			e := concept.New(v)
			c := e.Extract(strings.Join(args, " "))
			alternatives := e.AlternativeTerms(c)
			if alternatives == nil {
				alternatives = []string{}
			}
			return writeIndented(cmd.OutOrStdout(), struct {
				concept.Concepts
				Alternatives []string `json:"alternatives"`
			}{c, alternatives})
		},
	}

	cmd.Flags().StringVar(&vocabPath, "vocabulary", "", "Vocabulary YAML file (default: built-in)")
	return cmd
}

func printAnalysis(w io.Writer, a analysis.Analysis) {
	fmt.Fprintf(w, "strategy:   %s\n", a.Strategy)
	fmt.Fprintf(w, "confidence: %.2f\n", a.Confidence)
	if a.IdentifierType != "" {
		fmt.Fprintf(w, "identifier: %s\n", a.IdentifierType)
	}
	if a.Context != nil {
		for _, row := range []struct {
			label string
			vals  []string
		}{
			{"categories", a.Context.Categories},
			{"attributes", a.Context.Attributes},
			{"intents", a.Context.Intents},
			{"descriptors", a.Context.Descriptors},
		} {
			if len(row.vals) > 0 {
				fmt.Fprintf(w, "%-11s %s\n", row.label+":", strings.Join(row.vals, ", "))
			}
		}
	}
	if len(a.SuggestedChips) > 0 {
		fmt.Fprintf(w, "chips:      %s\n", strings.Join(a.SuggestedChips, ", "))
	}
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
