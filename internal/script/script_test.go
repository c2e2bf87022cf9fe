package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/lilypond"
	"github.com/kingrea/overture/internal/override"
	"github.com/kingrea/overture/internal/score"
)

const sampleScript = `id: segment-a
time_signatures: ["2/4", "2/4", "3/8"]
commands:
  - scope: {voice: mv, measures: [1, 2]}
    rhythm: {maker: talea, counts: [3, -1], denominator: 8}
  - scope: {voice: mv}
    stem_direction: {value: up}
    selector: "pleaves[0:3]"
  - scope: {voice: mv, measures: 1}
    tag: {tags: [solo]}
  - override: {grob: text_script, attribute: staff_padding, value: 4}
    deactivate: true
`

const sampleJSONC = `{
  // same music as sampleScript
  "id": "segment-a",
  "time_signatures": ["2/4", "2/4", "3/8"],
  "commands": [
    {"scope": {"voice": "mv", "measures": [1, 2]},
     "rhythm": {"maker": "talea", "counts": [3, -1], "denominator": 8}},
    {"scope": {"voice": "mv"}, "stem_direction": {"value": "up"}, "selector": "pleaves[0:3]"},
    {"scope": {"voice": "mv", "measures": 1}, "tag": {"tags": ["solo"]}},
    {"override": {"grob": "text_script", "attribute": "staff_padding", "value": 4}, "deactivate": true,},
  ],
}`

func TestParseYAML(t *testing.T) {
	s, err := ParseYAML([]byte(sampleScript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Template != score.DefaultTemplate || s.Name != "segment-a" {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if len(s.Commands) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(s.Commands))
	}
	if s.Commands[1].Command != "stem_direction" || s.Commands[1].Config["selector"] != "pleaves[0:3]" {
		t.Fatalf("unexpected entry: %+v", s.Commands[1])
	}
	if s.Commands[3].Scope.Voice != "MusicVoice" {
		t.Fatalf("single-voice template should default the voice, got %q", s.Commands[3].Scope.Voice)
	}
	if s.Commands[3].Config["deactivate"] != true {
		t.Fatalf("common key not merged: %+v", s.Commands[3].Config)
	}
}

func TestRunScript(t *testing.T) {
	s, err := ParseYAML([]byte(sampleScript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := Run(s, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Filled != 1 {
		t.Fatalf("expected one filled measure, got %d", out.Filled)
	}
	if got := out.Report.Count(command.StatusCompleted); got != 3 {
		t.Fatalf("expected 3 completed commands, got %d", got)
	}
	if got := out.Report.Count(command.StatusDeactivated); got != 1 {
		t.Fatalf("expected 1 deactivated command, got %d", got)
	}
	voice, _ := out.Score.Voice("mv")
	if len(voice.Leaves) != 5 {
		t.Fatalf("expected 5 leaves, got %d", len(voice.Leaves))
	}
	for i, leaf := range voice.Leaves[:4] {
		_, has := leaf.Property("", "Stem", "direction")
		if has != leaf.Kind.IsPitched() {
			t.Fatalf("leaf %d (%s): stem override present=%v", i, leaf, has)
		}
		if leaf.HasTag("solo") != (leaf.Measure == 1) {
			t.Fatalf("leaf %d (%s): solo tag in measure %d", i, leaf, leaf.Measure)
		}
	}
	if voice.Leaves[4].Kind != score.KindMultimeasureRest {
		t.Fatalf("measure 3 should hold a multimeasure rest, got %s", voice.Leaves[4])
	}
	for _, leaf := range voice.Leaves {
		if _, has := leaf.Property("", "TextScript", "staff-padding"); has {
			t.Fatalf("deactivated override reached %s", leaf)
		}
	}
	meta, err := out.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Segment != "segment-a" || meta.Fingerprint == "" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestParseJSONCMatchesYAML(t *testing.T) {
	fromYAML, err := ParseYAML([]byte(sampleScript))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	fromJSON, err := Parse("segment.jsonc", []byte(sampleJSONC))
	if err != nil {
		t.Fatalf("parse jsonc: %v", err)
	}
	a, err := Run(fromYAML, RunOptions{})
	if err != nil {
		t.Fatalf("run yaml: %v", err)
	}
	b, err := Run(fromJSON, RunOptions{})
	if err != nil {
		t.Fatalf("run jsonc: %v", err)
	}
	ha, err := score.Fingerprint(a.Score)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	hb, err := score.Fingerprint(b.Score)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if ha != hb {
		t.Fatalf("yaml and jsonc scripts should build the same score")
	}
}

func TestEntryErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"two bodies", "id: x\ntime_signatures: [4/4]\ncommands:\n  - rhythm: {maker: note}\n    tag: {tags: [a]}\n", "several commands"},
		{"unknown key", "id: x\ntime_signatures: [4/4]\ncommands:\n  - rhythm: {maker: note}\n    colour: 3\n", "unknown entry key"},
		{"no command", "id: x\ntime_signatures: [4/4]\ncommands:\n  - selector: leaves()\n", "command is required"},
		{"unknown voice", "id: x\ntime_signatures: [4/4]\ncommands:\n  - scope: {voice: viola}\n    rhythm: {maker: note}\n", "viola"},
		{"missing id", "time_signatures: [4/4]\n", "id is required"},
		{"bad meter", "id: x\ntime_signatures: [3/5]\n", "power of two"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tc.payload))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	s, err := ParseYAML([]byte("id: x\ntime_signatures: [4/4]\ncommands:\n  - override: {grob: stem, attribute: colour_me, value: red}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := s.Build(nil); !errors.Is(err, override.ErrUnknownAttribute) {
		t.Fatalf("expected unknown attribute, got %v", err)
	}

	s, err = ParseYAML([]byte("id: x\ntime_signatures: [4/4]\ncommands:\n  - rhythm: {maker: talea, counts: [1], denominator: 8, colour: red}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := s.Build(nil); err == nil || !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected unknown field error, got %v", err)
	}

	s, err = ParseYAML([]byte("id: x\ntime_signatures: [4/4]\ncommands:\n  - command: stem_dir\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := s.Build(nil); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestBuildRejectsUnknownForbidKind(t *testing.T) {
	s, err := ParseYAML([]byte("id: x\ntime_signatures: [4/4]\ncommands:\n  - override: {grob: stem, attribute: direction, value: up, forbid: [Rest, mmrests]}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := s.Build(nil); !errors.Is(err, score.ErrUnknownLeafKind) || !strings.Contains(err.Error(), "mmrests") {
		t.Fatalf("expected unknown leaf kind error naming mmrests, got %v", err)
	}

	s, err = ParseYAML([]byte("id: x\ntime_signatures: [4/4]\ncommands:\n  - override: {grob: stem, attribute: direction, value: up, forbid: [Rest, MMRest]}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := s.Build(nil); err != nil {
		t.Fatalf("known kinds rejected: %v", err)
	}
}

func TestCommandsReachFilledMeasures(t *testing.T) {
	s, err := ParseYAML([]byte(`id: rests
time_signatures: ["4/4", "4/4"]
commands:
  - override: {grob: MultiMeasureRest, attribute: staff-position, value: 2}
    selector: "mmrests()"
  - scope: {voice: mv, measures: 2}
    tag: {tags: [tacet]}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := Run(s, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Filled != 2 || out.Report.Filled != 2 {
		t.Fatalf("expected two filled measures, got %d", out.Filled)
	}
	first := out.Report.Outcomes[0].Result
	if first.Status != command.StatusCompleted || first.Targets != 2 {
		t.Fatalf("override should target both rests, got %+v", first)
	}
	voice, _ := out.Score.Voice("mv")
	if len(voice.Leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(voice.Leaves))
	}
	for _, leaf := range voice.Leaves {
		if leaf.Kind != score.KindMultimeasureRest {
			t.Fatalf("expected multimeasure rest, got %s", leaf)
		}
		if _, has := leaf.Property("", "MultiMeasureRest", "staff-position"); !has {
			t.Fatalf("staff-position missing on %s", leaf)
		}
		if leaf.HasTag("tacet") != (leaf.Measure == 2) {
			t.Fatalf("tacet tag on measure %d", leaf.Measure)
		}
	}
}

func TestRightBrokenSpanDoesNotTieIntoNextSpan(t *testing.T) {
	s, err := ParseYAML([]byte(`id: broken
time_signatures: ["2/4", "2/4"]
commands:
  - scope: {voice: mv, measures: 1}
    rhythm: {maker: talea, counts: [3], denominator: 8, persist: a, right_broken: true}
  - scope: {voice: mv, measures: 2}
    rhythm: {maker: talea, counts: [3], denominator: 8, persist: a}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := Run(s, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	voice, _ := out.Score.Voice("mv")
	broken := -1
	for i, leaf := range voice.Leaves {
		if leaf.HasIndicator(score.IndicatorRightBrokenTieFrom) {
			broken = i
		}
	}
	if broken < 0 || broken+1 >= len(voice.Leaves) {
		t.Fatalf("expected a right-broken leaf followed by measure 2: %v", voice.Leaves)
	}
	if voice.Leaves[broken].Tie || voice.Leaves[broken+1].RepeatTie {
		t.Fatalf("right-broken span must not continue into measure 2")
	}
	source, err := lilypond.Format(out.Score, lilypond.Options{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if strings.Contains(source, "~ %! "+score.IndicatorRightBrokenTieFrom) {
		t.Fatalf("right-broken tie drawn into the next span:\n%s", source)
	}
}

func TestRunSeedsContinuation(t *testing.T) {
	first, err := ParseYAML([]byte(`id: a
time_signatures: [1/4]
commands:
  - rhythm: {maker: talea, counts: [3], denominator: 8, persist: line}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := ParseYAML([]byte(`id: b
time_signatures: [1/4]
commands:
  - rhythm: {maker: talea, counts: [3], denominator: 8, persist: line}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a, err := Run(first, RunOptions{})
	if err != nil {
		t.Fatalf("run first: %v", err)
	}
	meta, err := a.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	data, err := command.EncodeMetadata(meta)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := command.DecodeMetadata(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b, err := Run(second, RunOptions{Seed: decoded.States})
	if err != nil {
		t.Fatalf("run second: %v", err)
	}
	voice, _ := b.Score.Voice("mv")
	if len(voice.Leaves) == 0 || !voice.Leaves[0].RepeatTie {
		t.Fatalf("second segment should continue the tied note: %v", voice.Leaves)
	}
}

func TestExplicitEntryRoundTrip(t *testing.T) {
	s, err := ParseYAML([]byte(sampleScript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	entry := s.Commands[1]
	payload, err := yaml.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Entry
	if err := yaml.Unmarshal(payload, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Command != entry.Command || back.Scope.Voice != entry.Scope.Voice || back.Config["selector"] != "pleaves[0:3]" {
		t.Fatalf("round trip changed the entry: %+v", back)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(sampleScript), 0644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	other := strings.Replace(sampleJSONC, `"segment-a"`, `"segment-b"`, 1)
	if err := os.WriteFile(filepath.Join(dir, "b.jsonc"), []byte(other), 0644); err != nil {
		t.Fatalf("write jsonc: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(files) != 2 || files[0].Script.ID != "segment-a" || files[1].Script.ID != "segment-b" {
		t.Fatalf("unexpected files: %+v", files)
	}

	missing, err := LoadDir(filepath.Join(dir, "missing"))
	if err != nil || missing != nil {
		t.Fatalf("missing dir should yield nothing, got %v, %v", missing, err)
	}
}

func TestLoadFileWithTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "violin.yaml")
	body := `id: violin
time_signatures: ["4/4"]
commands:
  - rhythm: {maker: note}
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	file, err := LoadFileWithTemplate(path, "violin-solo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Script.Template != "violin-solo" || file.Script.Commands[0].Scope.Voice != "ViolinMusicVoice" {
		t.Fatalf("template default not applied: %+v", file.Script)
	}
	plain, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load plain: %v", err)
	}
	if plain.Script.Template != score.DefaultTemplate {
		t.Fatalf("expected %s, got %s", score.DefaultTemplate, plain.Script.Template)
	}
}
