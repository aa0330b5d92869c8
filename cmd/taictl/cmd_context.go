package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
)

// contextCmd 打印组装结果
var contextCmd = &cobra.Command{
	Use:   "context <task-id> <question>",
	Short: "Show the assembled context for a task",
	Long: `Run retrieval and budget packing for a task and print the selected
snippets with their scores, followed by every consulted document.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runContext,
}

// promptCmd 打印提示词
var promptCmd = &cobra.Command{
	Use:   "prompt <task-id> <question>",
	Short: "Show the prompt pair built for a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPrompt,
}

func runContext(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	svc, err := e.ragService()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	assembled, err := svc.AssembleContext(ctx, args[0], strings.Join(args[1:], " "), maxTokens)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(assembled)
	}
	renderContext(cmd.OutOrStdout(), assembled)
	return nil
}

func runPrompt(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	svc, err := e.ragService()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pair, err := svc.BuildPrompt(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	renderPrompt(cmd.OutOrStdout(), pair)
	return nil
}

func renderContext(w io.Writer, ac *rag.AssembledContext) {
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	header.Fprintf(w, "%s  %s\n", ac.Task.ID, ac.Task.Title)
	fmt.Fprintf(w, "client: %s  form: %s  status: %s\n", ac.Task.Client, ac.Task.TaxForm, ac.Task.Status)
	fmt.Fprintf(w, "tokens: %d / %d\n", ac.EstimatedTokens, ac.TokenBudget)
	if ac.OverBudget {
		color.New(color.FgRed).Fprintln(w, "metadata alone exceeds the budget, no snippets included")
	} else if ac.BudgetExhausted {
		color.New(color.FgYellow).Fprintln(w, "budget exhausted, lower-ranked snippets dropped")
	}

	fmt.Fprintln(w)
	if len(ac.Snippets) == 0 {
		dim.Fprintln(w, "(no snippets)")
	}
	for i, s := range ac.Snippets {
		suffix := ""
		if s.Truncated {
			suffix = " [truncated]"
		}
		header.Fprintf(w, "#%d %s chunk %d score %.2f%s\n", i+1, s.FileName, s.Chunk.Index, s.Score, suffix)
		fmt.Fprintln(w, s.Chunk.Text)
		fmt.Fprintln(w)
	}

	header.Fprintln(w, "consulted documents")
	for _, d := range ac.Consulted {
		status := string(d.Status)
		switch d.Status {
		case rag.ConsultUsed:
			status = color.GreenString(status)
		case rag.ConsultSkipped:
			status = color.YellowString(status)
		}
		line := fmt.Sprintf("  %-8s %s (%s)", status, d.FileName, d.DocID)
		if d.Reason != "" {
			line += " " + dim.Sprint(d.Reason)
		}
		fmt.Fprintln(w, line)
	}
}

func renderPrompt(w io.Writer, pair rag.PromptPair) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(w, "--- system ---")
	fmt.Fprintln(w, pair.SystemPrompt)
	header.Fprintln(w, "--- user ---")
	fmt.Fprintln(w, pair.UserPrompt)
}
