package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/isobundle/pkg/bundler"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/output"
	"github.com/arthur-debert/isobundle/pkg/rules"
)

// Renderer writes command output in one format
type Renderer struct {
	w      io.Writer
	format Format
	st     styles
}

// NewRenderer resolves FormatAuto against w
func NewRenderer(format Format, w io.Writer) *Renderer {
	if format == FormatAuto {
		format = DetectFormat(w)
	}
	st := plainStyles()
	if format == FormatTerminal {
		st = terminalStyles()
	}
	return &Renderer{w: w, format: format, st: st}
}

// Format returns the resolved format
func (r *Renderer) Format() Format {
	return r.format
}

type buildView struct {
	BuildID    string                `json:"build_id"`
	Target     string                `json:"target"`
	Mode       string                `json:"mode"`
	OutDir     string                `json:"out_dir"`
	DurationMS int64                 `json:"duration_ms"`
	Artifacts  []output.Artifact     `json:"artifacts"`
	Externals  []string              `json:"externals,omitempty"`
	Assets     []bundler.AssetRecord `json:"assets,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
}

// RenderBuilds summarizes finished builds
func (r *Renderer) RenderBuilds(results []*bundler.Result) error {
	if r.format == FormatJSON {
		views := make([]buildView, 0, len(results))
		for _, res := range results {
			views = append(views, buildView{
				BuildID:    res.BuildID,
				Target:     string(res.Target),
				Mode:       string(res.Mode),
				OutDir:     res.OutDir,
				DurationMS: res.Duration.Milliseconds(),
				Artifacts:  res.Artifacts,
				Externals:  res.Externals,
				Assets:     res.Assets,
				Warnings:   res.Warnings,
			})
		}
		return r.json(views)
	}

	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			r.st.success.Render("✓"),
			r.st.title.Render(string(res.Target)),
			r.st.muted.Render(fmt.Sprintf("(%s, %s) -> %s", res.Mode, res.Duration.Round(1e6), res.OutDir)))

		width := 0
		for _, a := range res.Artifacts {
			width = max(width, len(a.Path))
		}
		for _, a := range res.Artifacts {
			fmt.Fprintf(&b, "  %-8s %s%s %s\n",
				a.Kind,
				r.st.path.Render(a.Path),
				strings.Repeat(" ", width-len(a.Path)),
				r.st.muted.Render(formatSize(a.Size)))
		}

		inlined := 0
		for _, a := range res.Assets {
			if a.Inline {
				inlined++
			}
		}
		if len(res.Assets) > 0 {
			fmt.Fprintf(&b, "  %s\n", r.st.muted.Render(fmt.Sprintf("assets: %d inlined, %d emitted", inlined, len(res.Assets)-inlined)))
		}
		if len(res.Externals) > 0 {
			fmt.Fprintf(&b, "  %s\n", r.st.muted.Render("externals: "+strings.Join(res.Externals, ", ")))
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", r.st.warning.Render("warning:"), w)
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

type traceView struct {
	Module  string             `json:"module"`
	Trace   []rules.TraceEntry `json:"trace"`
	Matched string             `json:"matched,omitempty"`
	Steps   []string           `json:"steps,omitempty"`
}

// RenderTrace shows how the rules were evaluated for one module
func (r *Renderer) RenderTrace(module string, trace []rules.TraceEntry, matched *rules.Rule) error {
	var steps []string
	if matched != nil {
		for _, k := range matched.Chain.Kinds() {
			steps = append(steps, string(k))
		}
	}

	if r.format == FormatJSON {
		view := traceView{Module: module, Trace: trace, Steps: steps}
		if matched != nil {
			view.Matched = matched.Label()
		}
		return r.json(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.st.title.Render(module))
	for _, e := range trace {
		label := e.Path
		if e.Name != "" {
			label = e.Name + " (" + e.Path + ")"
		}
		indent := strings.Repeat("  ", e.Depth+1)
		switch {
		case e.Group:
			fmt.Fprintf(&b, "%s%s %s\n", indent, r.st.muted.Render("group"), label)
		case e.Matched:
			fmt.Fprintf(&b, "%s%s %s %s\n", indent, r.st.success.Render("match"), label, r.st.muted.Render(e.Detail))
		default:
			fmt.Fprintf(&b, "%s%s %s %s\n", indent, r.st.muted.Render("skip")+" ", label, r.st.muted.Render(e.Detail))
		}
	}
	if matched == nil {
		fmt.Fprintf(&b, "%s\n", r.st.warning.Render("no rule matches, the module passes through unchanged"))
	} else {
		fmt.Fprintf(&b, "%s %s\n", r.st.success.Render("chain:"), strings.Join(steps, " -> "))
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

type errorView struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RenderError reports a failure with its coded details
func (r *Renderer) RenderError(err error) error {
	if r.format == FormatJSON {
		view := errorView{Code: string(errors.GetErrorCode(err)), Message: err.Error(), Details: errors.GetErrorDetails(err)}
		return r.json(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.st.failure.Render("error:"), err.Error())
	details := errors.GetErrorDetails(err)
	for _, key := range []string{
		errors.DetailTarget, errors.DetailModule, errors.DetailImporter,
		errors.DetailRule, errors.DetailStep, errors.DetailLine, errors.DetailColumn, errors.DetailPath,
	} {
		if v, ok := details[key]; ok {
			fmt.Fprintf(&b, "  %s%s %v\n", r.st.muted.Render(key+":"), strings.Repeat(" ", 9-len(key)-1), v)
		}
	}
	_, werr := io.WriteString(r.w, b.String())
	return werr
}

// RenderMessage writes one line
func (r *Renderer) RenderMessage(msg string) error {
	if r.format == FormatJSON {
		return r.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(r.w, msg)
	return err
}

func (r *Renderer) json(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode output")
	}
	return nil
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
