package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/internal/service/ability"
	"github.com/duetml/duet/internal/service/imagegen"
	"github.com/duetml/duet/internal/service/orchestrator"
	"github.com/duetml/duet/pkg/log"
)

const defaultConversationID = "cli-local"

// transcriptWindow bounds how much recent dialogue abilities operate on.
const transcriptWindow = 40

var (
	styleA      = lipgloss.NewStyle().Foreground(lipgloss.Color("211")).Bold(true)
	styleB      = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	styleMod    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	styleRaw    = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	styleNotice = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))
)

// ReadLine is the development surface: a stdin loop feeding the orchestrator
// with persona-colored output. The production chat gateway lives elsewhere.
type ReadLine struct {
	cfg       *config.AppConfig
	orch      *orchestrator.Orchestrator
	images    *imagegen.Pipeline
	learner   *imagegen.Learner
	abilities *ability.Service
	reporter  *ability.Reporter
	rl        *readline.Instance

	lastImage  *core.Image
	transcript []string
}

func NewReadLine(
	orch *orchestrator.Orchestrator,
	images *imagegen.Pipeline,
	learner *imagegen.Learner,
	abilities *ability.Service,
	reporter *ability.Reporter,
	cfg *config.AppConfig,
) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	r := &ReadLine{
		cfg:       cfg,
		orch:      orch,
		images:    images,
		learner:   learner,
		abilities: abilities,
		reporter:  reporter,
		rl:        rl,
	}
	images.SetDeliver(r.deliverSurprise)
	return r, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("chat started. Type 'exit' to quit, '/help' for commands.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			r.handleCommand(ctx, line)
			continue
		}

		r.transcript = append(r.transcript, "user: "+line)
		res, err := r.orch.Turn(ctx, defaultConversationID, line)
		if err != nil {
			logger.Error().Err(err).Msg("turn aborted")
		}
		r.render(res)
	}
}

func (r *ReadLine) handleCommand(ctx context.Context, line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help":
		r.printf("%s\n", styleNotice.Render(
			"/image <scene>   render an image right now\n"+
				"/learn           learn the style of the last image\n"+
				"/ability <kind>  run post|memo|article|retro over recent chat\n"+
				"/report          growth report from accumulated memories\n"+
				"exit             quit"))

	case "/image":
		if arg == "" {
			r.printf("%s\n", styleNotice.Render("usage: /image <scene>"))
			return
		}
		img, err := r.images.Render(ctx, core.ImageIdea{
			Personas:  []string{r.cfg.PersonaA, r.cfg.PersonaB},
			Situation: arg,
		})
		if err != nil {
			r.printf("%s\n", styleMod.Render(fmt.Sprintf("image failed: %v", err)))
			return
		}
		r.showImage(img)

	case "/learn":
		if r.lastImage == nil {
			r.printf("%s\n", styleNotice.Render("no image to learn from yet"))
			return
		}
		profile, err := r.learner.AnalyzeStyle(ctx, r.lastImage, r.lastImage.Prompt)
		if err != nil {
			r.printf("%s\n", styleMod.Render(fmt.Sprintf("style learning failed: %v", err)))
			return
		}
		r.printf("%s\n", styleNotice.Render("learned style: "+profile.Analysis.Name))

	case "/ability":
		out, err := r.abilities.Run(ctx, ability.Kind(arg), strings.Join(r.transcript, "\n"))
		if err != nil {
			r.printf("%s\n", styleMod.Render(fmt.Sprintf("ability failed: %v", err)))
			return
		}
		r.printf("%s\n", styleRaw.Render(out))

	case "/report":
		out, err := r.reporter.Report(ctx)
		if errors.Is(err, ability.ErrNoHistory) {
			r.printf("%s\n", styleNotice.Render("not enough remembered conversations yet, come back later"))
			return
		}
		if err != nil {
			r.printf("%s\n", styleMod.Render(fmt.Sprintf("report failed: %v", err)))
			return
		}
		r.printf("%s\n", styleRaw.Render(out))

	default:
		r.printf("%s\n", styleNotice.Render("unknown command, try /help"))
	}
}

func (r *ReadLine) render(res *orchestrator.TurnResult) {
	if res == nil {
		return
	}

	if res.Raw != "" {
		// Fallback path: the model's text, trimmed only for display.
		text := strings.TrimSpace(res.Raw)
		r.printf("%s\n", styleRaw.Render(text))
		r.transcript = append(r.transcript, text)
	}

	for _, line := range res.Dialogue {
		r.printf("%s %s\n", r.speakerStyle(line.Speaker).Render(line.Speaker+":"), line.Line)
		r.transcript = append(r.transcript, line.Speaker+": "+line.Line)
	}
	if len(r.transcript) > transcriptWindow {
		r.transcript = r.transcript[len(r.transcript)-transcriptWindow:]
	}

	if res.Image != nil {
		r.showImage(res.Image)
	}
}

func (r *ReadLine) speakerStyle(speaker string) lipgloss.Style {
	switch strings.ToLower(speaker) {
	case strings.ToLower(r.cfg.PersonaA):
		return styleA
	case strings.ToLower(r.cfg.PersonaB):
		return styleB
	default:
		return styleMod
	}
}

// showImage writes the bytes under the runtime dir and prints the path; a
// terminal can't show the picture itself.
func (r *ReadLine) showImage(img *core.Image) {
	r.lastImage = img

	dir := filepath.Join(r.cfg.RuntimePath, "images")
	if err := os.MkdirAll(dir, 0755); err != nil {
		r.printf("%s\n", styleMod.Render(fmt.Sprintf("could not save image: %v", err)))
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%d%s", time.Now().Unix(), extensionFor(img.MIMEType)))
	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		r.printf("%s\n", styleMod.Render(fmt.Sprintf("could not save image: %v", err)))
		return
	}
	r.printf("%s\n", styleNotice.Render("image saved: "+path))
}

func (r *ReadLine) deliverSurprise(_ string, img *core.Image) {
	r.printf("%s\n", styleNotice.Render("(a little surprise...)"))
	r.showImage(img)
}

// Notice renders an unprompted moderator aside, like a music suggestion.
func (r *ReadLine) Notice(_ context.Context, _ string, text string) {
	r.printf("%s\n", styleMod.Render(r.cfg.Moderator+": "+text))
}

func (r *ReadLine) printf(format string, args ...any) {
	fmt.Fprintf(r.rl.Stdout(), format, args...)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
