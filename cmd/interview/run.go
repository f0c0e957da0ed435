package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/session"
	"github.com/danielpatrickdp/interview-engine/internal/speech"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interview session in the terminal",
	Long: `Run starts a session and reads the candidate's answer from stdin. Plain lines are
appended to the answer as if spoken. With --transcript, lines read from that file or FIFO
(for example the output of an external recognizer) are captured as speech too.
Lines starting with ':' are commands:

  :next          freeze the answer and move to the next question
  :think         enter thinking mode (speech held back, clock keeps running)
  :resume        leave thinking mode
  :type <text>   replace the answer with typed text
  :status        show the clock, scores and confidence
  :end           end the session and submit the report`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("settings", "", "session settings JSON file")
	runCmd.Flags().String("position", "", "position being interviewed for")
	runCmd.Flags().String("experience", "", "junior, mid or senior")
	runCmd.Flags().Int("duration", 0, "session length in minutes")
	runCmd.Flags().Int("questions", 0, "number of questions")
	runCmd.Flags().StringSlice("skills", nil, "skills to focus on")
	runCmd.Flags().String("transcript", "", "file or FIFO of recognized speech, one line per final fragment")
}

// #region run

func runSession(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := settingsFromFlags(cmd)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	if path, _ := cmd.Flags().GetString("transcript"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer f.Close()
		rt.deps.Recognizer = speech.NewLineRecognizer(f)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := session.New(sessionConfig(cfg), rt.deps)
	if err := c.Start(ctx, settings); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := repl(ctx, c, cmd.InOrStdin(), out); err != nil {
		return err
	}

	report, id, subErr := c.Result()
	printReport(out, report)
	if subErr != nil {
		return fmt.Errorf("report not submitted: %w", subErr)
	}
	fmt.Fprintf(out, "submitted as %s\n", id)
	return nil
}

func settingsFromFlags(cmd *cobra.Command) (interview.Settings, error) {
	var s interview.Settings
	if path, _ := cmd.Flags().GetString("settings"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read settings %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	f := cmd.Flags()
	if f.Changed("position") {
		s.Position, _ = f.GetString("position")
	}
	if f.Changed("experience") {
		s.Experience, _ = f.GetString("experience")
	}
	if f.Changed("duration") {
		n, _ := f.GetInt("duration")
		s.Duration = interview.FlexInt(n)
	}
	if f.Changed("questions") {
		n, _ := f.GetInt("questions")
		s.QuestionCount = interview.FlexInt(n)
	}
	if f.Changed("skills") {
		s.Skills, _ = f.GetStringSlice("skills")
	}
	return s, nil
}

// #endregion run

// #region repl

// sessionControl is the part of *session.Controller the terminal drives.
type sessionControl interface {
	AppendTranscript(text string) error
	Advance() error
	SetThinking(on bool) error
	SetAnswer(text string) error
	End() error
	Snapshot() session.View
	Done() <-chan struct{}
}

// console applies stdin lines to a session in order. Answer lines typed while thinking are held
// and appended on :resume.
type console struct {
	c        sessionControl
	out      io.Writer
	thinking bool
	held     []string
}

// repl dispatches stdin lines until the session is terminal. EOF ends the session.
func repl(ctx context.Context, c sessionControl, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-c.Done():
				return
			}
		}
	}()

	con := &console{c: c, out: out}
	printQuestion(out, c.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return endSession(c)
		case <-c.Done():
			fmt.Fprintln(out, "session over")
			return nil
		case line, ok := <-lines:
			if !ok {
				return endSession(c)
			}
			done, err := con.dispatch(strings.TrimSpace(line))
			if errors.Is(err, session.ErrEnded) {
				<-c.Done()
				return nil
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if done {
				return nil
			}
		}
	}
}

// dispatch handles one line and reports whether the session was ended by it. Each call returns
// only after the session has applied the line.
func (k *console) dispatch(line string) (bool, error) {
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, ":") {
		if k.thinking {
			k.held = append(k.held, line)
			return false, nil
		}
		return false, k.c.AppendTranscript(line)
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	switch cmd {
	case "next":
		before := k.c.Snapshot().State.Cursor
		if err := k.c.Advance(); err != nil {
			return false, err
		}
		if v := k.c.Snapshot(); v.State.Cursor != before {
			printQuestion(k.out, v)
		}
	case "think":
		if err := k.c.SetThinking(true); err != nil {
			return false, err
		}
		k.thinking = true
	case "resume":
		if err := k.c.SetThinking(false); err != nil {
			return false, err
		}
		k.thinking = false
		held := k.held
		k.held = nil
		for _, h := range held {
			if err := k.c.AppendTranscript(h); err != nil {
				return false, err
			}
		}
	case "type":
		return false, k.c.SetAnswer(strings.TrimSpace(arg))
	case "status":
		printStatus(k.out, k.c.Snapshot())
	case "end":
		return true, k.c.End()
	default:
		return false, fmt.Errorf("unknown command %q", line)
	}
	return false, nil
}

func endSession(c sessionControl) error {
	if err := c.End(); err != nil && !errors.Is(err, session.ErrEnded) {
		return err
	}
	return nil
}

// #endregion repl

// #region output

func printQuestion(out io.Writer, v session.View) {
	if v.QuestionCount == 0 {
		return
	}
	fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", v.State.Cursor+1, v.QuestionCount, v.Question.Text)
}

func printStatus(out io.Writer, v session.View) {
	fmt.Fprintf(out, "%-10s %02d:%02d left  question %d/%d\n",
		v.State.Phase, v.State.RemainingSeconds/60, v.State.RemainingSeconds%60,
		v.State.Cursor+1, v.QuestionCount)
	fmt.Fprintf(out, "relevance %3d  communication %3d  confidence %3d (%s)\n",
		v.Scores.Relevance, v.Scores.Communication, v.Perception.Confidence, v.Perception.Expression)
	if v.Answer != "" {
		fmt.Fprintf(out, "answer: %s\n", v.Answer)
	}
}

func printReport(out io.Writer, r interview.Report) {
	fmt.Fprintf(out, "\nOverall %d  (confidence %d, relevance %d, communication %d)  ended: %s\n",
		r.OverallScore, r.Averages.Confidence, r.Averages.Relevance, r.Averages.Communication, r.EndReason)
	for _, s := range r.Strengths {
		fmt.Fprintf(out, "  + %s\n", s)
	}
	for _, s := range r.Improvements {
		fmt.Fprintf(out, "  - %s\n", s)
	}
}

// #endregion output
