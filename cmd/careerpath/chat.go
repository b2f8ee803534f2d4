package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalambet/careerpath/internal/advisor"
	"github.com/kalambet/careerpath/internal/config"
	"github.com/kalambet/careerpath/internal/shell"
	"github.com/kalambet/careerpath/internal/tracker"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the career advisor",
	Long: `Start an interactive advisor console.

Commands:
  /view <name>  show dashboard, profile, skills, roadmap or advisor
  /menu         toggle the navigation menu
  /history      print the conversation so far
  /quit         leave the console`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := &console{
			client: client,
			conv:   advisor.NewConversation(newAdvisor(cfg)),
			nav:    shell.NewNavigator(),
			out:    cmd.OutOrStdout(),
		}
		c.nav.SetView(shell.ViewAdvisor)
		return c.run(ctx, os.Stdin)
	},
}

type console struct {
	client *apiClient
	conv   *advisor.Conversation
	nav    *shell.Navigator
	out    io.Writer
}

var errQuit = errors.New("quit")

func (c *console) run(ctx context.Context, in io.Reader) error {
	c.printMessage(c.conv.Messages()[0])
	fmt.Fprintf(c.out, "%s\n", colorize(colorDim, "Try: "+strings.Join(advisor.Suggestions, " · ")))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, colorize(colorBold, "you> "))
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		err := c.handle(ctx, scanner.Text())
		switch {
		case errors.Is(err, errQuit):
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			printError("%v", err)
		}
	}
}

func (c *console) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return c.send(ctx, line)
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	switch name {
	case "quit", "exit":
		return errQuit
	case "menu":
		if c.nav.ToggleSidebar() {
			renderMenu(c.out, c.nav.Current())
		} else {
			fmt.Fprintln(c.out, colorize(colorDim, "menu closed"))
		}
	case "view":
		v := shell.ParseView(strings.TrimSpace(arg))
		c.nav.SetView(v)
		return showView(ctx, c.out, c.client, v)
	case "history":
		for _, m := range c.conv.Messages() {
			c.printMessage(m)
		}
	default:
		return fmt.Errorf("unknown command /%s (try /view, /menu, /history or /quit)", name)
	}
	return nil
}

func (c *console) send(ctx context.Context, text string) error {
	snap, err := c.client.snapshot(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, colorize(colorDim, "advisor is typing..."))
	reply, err := c.conv.Send(ctx, text, advisorContext(snap))
	if err != nil {
		return err
	}
	c.printMessage(reply)
	return nil
}

func (c *console) printMessage(m advisor.Message) {
	who := colorize(colorCyan, "advisor")
	if m.Role == advisor.RoleUser {
		who = colorize(colorBold, "you")
	}
	fmt.Fprintf(c.out, "%s %s %s\n", colorize(colorDim, m.Timestamp.Local().Format("15:04")), who, m.Content)
}

func advisorContext(snap tracker.Snapshot) advisor.Context {
	return advisor.Context{Skills: snap.RoadmapSkills(), Interests: snap.Interests()}
}
