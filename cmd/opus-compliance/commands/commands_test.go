package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wavelane/opusnative/internal/testvectors"
)

var silencePackets = []testvectors.Packet{
	{Data: []byte{0xF8, 0xFF, 0xFF}},
	{Data: []byte{0xFC, 0xFF, 0xFF}},
	{},
	{Data: []byte{0xE0, 0xFF, 0xFF}},
}

const silenceSamples = 960 + 960 + 960 + 120

func resetFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		for _, fs := range []*pflag.FlagSet{c.PersistentFlags(), c.Flags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
	}
}

// runCmd executes the root command with args and a clean environment
// pointing at dir.
func runCmd(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("OPUS_VECTOR_DIR", dir)
	t.Setenv("OPUS_MANIFEST", "")
	t.Setenv("OPUS_QUALITY_THRESHOLD", "0")
	t.Setenv("OPUS_LOG_LEVEL", "info")

	resetFlags(rootCmd, decodeCmd, compareCmd)
	t.Cleanup(func() { resetFlags(rootCmd, decodeCmd, compareCmd) })

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, path string, write func(*os.File) error) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := write(f); err != nil {
		f.Close()
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

// writeVector stores the silence stream as vector name under dir with
// references of refSamples samples per channel.
func writeVector(t *testing.T, dir, name string, packets []testvectors.Packet, refSamples int) {
	t.Helper()
	v := testvectors.Vector{Name: name}
	writeFile(t, v.BitstreamPath(dir), func(f *os.File) error {
		return testvectors.WriteBitstream(f, packets)
	})
	for _, ch := range []int{1, 2} {
		writeFile(t, v.ReferencePath(dir, ch), func(f *os.File) error {
			return testvectors.WritePCM(f, make([]int16, refSamples*ch))
		})
	}
}

func writeManifest(t *testing.T, dir string, names ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("rate: 48000\nvectors:\n")
	for _, n := range names {
		b.WriteString("  - name: " + n + "\n")
	}
	path := filepath.Join(dir, "vectors.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeWritesPCM(t *testing.T) {
	dir := t.TempDir()
	writeVector(t, dir, "silence", silencePackets, silenceSamples)
	out := filepath.Join(dir, "out.pcm")

	stdout, _, err := runCmd(t, dir, "decode", filepath.Join(dir, "silence.bit"), out, "--channels", "1")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	pcm, err := testvectors.ReadPCM(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm) != silenceSamples {
		t.Fatalf("wrote %d samples, want %d", len(pcm), silenceSamples)
	}
	for _, want := range []string{"packets:   4 (1 lost, 0 decode errors)", "0 mismatched"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestDecodeReportsRangeMismatch(t *testing.T) {
	dir := t.TempDir()
	packets := append([]testvectors.Packet(nil), silencePackets...)
	packets[1].FinalRange = 1
	writeVector(t, dir, "bad", packets, silenceSamples)

	_, _, err := runCmd(t, dir, "decode", filepath.Join(dir, "bad.bit"))
	if err == nil || !strings.Contains(err.Error(), "first at packet 1") {
		t.Fatalf("err = %v, want a mismatch at packet 1", err)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := runCmd(t, dir, "decode", filepath.Join(dir, "missing.bit")); err == nil {
		t.Fatal("decoding a missing file succeeded")
	}
}

func TestComparePasses(t *testing.T) {
	dir := t.TempDir()
	writeVector(t, dir, "silence", silencePackets, silenceSamples)
	manifest := writeManifest(t, dir, "silence")

	stdout, _, err := runCmd(t, dir, "compare", "--manifest", manifest)
	if err != nil {
		t.Fatalf("compare: %v\n%s", err, stdout)
	}
	if got := strings.Count(stdout, "PASS"); got != 2 {
		t.Fatalf("%d passing checks, want 2:\n%s", got, stdout)
	}
}

func TestCompareSingleLayout(t *testing.T) {
	dir := t.TempDir()
	writeVector(t, dir, "silence", silencePackets, silenceSamples)
	manifest := writeManifest(t, dir, "silence")

	stdout, _, err := runCmd(t, dir, "compare", "silence", "--manifest", manifest, "-c", "1")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if got := strings.Count(stdout, "PASS"); got != 1 {
		t.Fatalf("%d passing checks, want 1:\n%s", got, stdout)
	}
}

func TestCompareVectorFlagOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeVector(t, dir, "silence", silencePackets, silenceSamples)
	manifest := writeManifest(t, dir, "silence")

	// The environment points at an empty directory.
	_, _, err := runCmd(t, t.TempDir(), "compare", "--manifest", manifest, "--vectors", dir)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
}

func TestCompareFailsOnShortReference(t *testing.T) {
	dir := t.TempDir()
	writeVector(t, dir, "short", silencePackets, silenceSamples-1)
	manifest := writeManifest(t, dir, "short")

	stdout, _, err := runCmd(t, dir, "compare", "--manifest", manifest)
	if err == nil || !strings.Contains(err.Error(), "2 of 2 checks failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(stdout, "FAIL") {
		t.Fatalf("no failing row:\n%s", stdout)
	}
}

func TestCompareMissingVectorIsAnError(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, "absent")

	stdout, stderr, err := runCmd(t, dir, "compare", "--manifest", manifest)
	if err == nil {
		t.Fatal("compare passed without vector files")
	}
	if !strings.Contains(stdout, "ERROR") || !strings.Contains(stderr, "vector failed to run") {
		t.Fatalf("stdout:\n%s\nstderr:\n%s", stdout, stderr)
	}
}

func TestCompareRejectsUnknownVector(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, "silence")
	if _, _, err := runCmd(t, dir, "compare", "nope", "--manifest", manifest); err == nil {
		t.Fatal("unknown vector accepted")
	}
}

func TestCompareRejectsBadChannels(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, "silence")
	if _, _, err := runCmd(t, dir, "compare", "--manifest", manifest, "-c", "3"); err == nil {
		t.Fatal("--channels 3 accepted")
	}
}

func TestBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPUS_LOG_LEVEL", "loud")
	resetFlags(rootCmd, decodeCmd, compareCmd)
	rootCmd.SetArgs([]string{"compare"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)
	t.Setenv("OPUS_VECTOR_DIR", dir)
	if err := rootCmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("bad OPUS_LOG_LEVEL accepted")
	}
}
