package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

var askShowRoute bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Ask one question and print the answer.

The model searches your documents only when the question needs them.
Use --route to see which path was taken and what was searched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowRoute, "route", false, "print the route and retrieval query")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question must not be empty")
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if rt.Agent == nil {
		return errors.New("chat agent not configured")
	}

	answer, err := rt.Agent.Ask(cmd.Context(), nil, question)
	if err != nil {
		cmd.Println(domain.ApologyMessage(err))
		return err
	}

	cmd.Println(answer.Text)
	if askShowRoute {
		printRoute(cmd, answer)
	}
	return nil
}

func printRoute(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println()
	cmd.Printf("route: %s\n", answer.Route)
	if answer.Query != "" {
		cmd.Printf("searched: %s\n", answer.Query)
	}
	if answer.RetrievalFailed {
		cmd.Println("warning: document search failed, answered without documents")
	}
}
