package fixtures_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/fnk-e2e/fixtures"
)

var printCall = regexp.MustCompile(`print\("([^"]*)"\)`)

// fakeToolchain stands in for the go toolchain and the interpreter: Build
// drops an empty file where the binary should be, Run "interprets" the
// source by echoing every print("...") call.
type fakeToolchain struct {
	buildErr   error
	skipBinary bool
	exitCode   int
	stdout     func(source string) string
	onRun      func(input string)

	builds int
	inputs []string
}

func (f *fakeToolchain) Name() string { return "fake" }

func (f *fakeToolchain) Build(opts fixtures.BuildOptions) (string, error) {
	f.builds++
	if f.buildErr != nil {
		return "", f.buildErr
	}
	binary := filepath.Join(opts.OutputDir, opts.BinaryName)
	if !f.skipBinary {
		if err := os.WriteFile(binary, nil, 0o755); err != nil {
			return "", err
		}
	}
	return binary, nil
}

func (f *fakeToolchain) Run(binary string, args ...string) fixtures.ExecResult {
	input := args[0]
	f.inputs = append(f.inputs, input)
	if f.onRun != nil {
		f.onRun(input)
	}

	source, err := os.ReadFile(input)
	if err != nil {
		return fixtures.ExecResult{ExitCode: 1, Stderr: err.Error()}
	}
	stdout := echoPrints(string(source))
	if f.stdout != nil {
		stdout = f.stdout(string(source))
	}
	return fixtures.ExecResult{ExitCode: f.exitCode, Stdout: stdout}
}

func echoPrints(source string) string {
	var sb strings.Builder
	for _, m := range printCall.FindAllStringSubmatch(source, -1) {
		sb.WriteString(m[1] + "\n")
	}
	return sb.String()
}

var _ = Describe("Runner", func() {
	var (
		testsDir string
		out      *bytes.Buffer
		tc       *fakeToolchain
	)

	writeFixture := func(name, content string) string {
		path := filepath.Join(testsDir, name)
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	run := func(filter string) (fixtures.Stats, error) {
		runner, err := fixtures.NewRunner(fixtures.RunnerOptions{
			SourceRoot:  testsDir,
			FixtureRoot: testsDir,
			Extension:   "fnk",
			Filter:      filter,
			Package:     "cmd/funk",
			BinaryName:  "funk",
			NoColor:     true,
			Out:         out,
		}, tc)
		Expect(err).NotTo(HaveOccurred())
		return runner.Run()
	}

	BeforeEach(func() {
		var err error
		testsDir, err = os.MkdirTemp("", "fnk-e2e-tests-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, testsDir)

		out = &bytes.Buffer{}
		tc = &fakeToolchain{}
	})

	It("requires a toolchain", func() {
		_, err := fixtures.NewRunner(fixtures.RunnerOptions{}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("passes a plain fixture that exits cleanly", func() {
		writeFixture("ok.fnk", "let x = 1\n")

		stats, err := run("")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(Equal(fixtures.Stats{Total: 1, Passed: 1}))
		Expect(tc.builds).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("Found following test files:\n\tok.fnk\n"))
		Expect(out.String()).To(ContainSubstring("Running test ok.fnk... Passed\n"))
		Expect(out.String()).To(ContainSubstring("Passed 1/1.\n0 tests failed.\n"))
	})

	It("passes an annotated fixture whose stdout matches", func() {
		writeFixture("hello.fnk", "@EXPECTED\nhello\n\n@SOURCE\nprint(\"hello\")\n")

		stats, err := run("")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.IsOK()).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("Running test hello.fnk... Passed"))
	})

	It("fails an annotated fixture whose stdout differs", func() {
		writeFixture("hello.fnk", "@EXPECTED\nhello\n\n@SOURCE\nprint(\"hello\")\n")
		tc.stdout = func(string) string { return "hullo\n" }

		stats, err := run("")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(Equal(fixtures.Stats{Total: 1, Failed: 1}))
		Expect(out.String()).To(ContainSubstring("Running test hello.fnk... Failed"))
		Expect(out.String()).To(ContainSubstring("FAILED TEST hello.fnk\n"))
		Expect(out.String()).To(ContainSubstring("Expected: ==========\n\nhello\n"))
		Expect(out.String()).To(ContainSubstring("GOT: ===========\n\nhullo\n"))
		Expect(out.String()).To(ContainSubstring("Passed 0/1.\n1 tests failed.\n"))
	})

	It("fails a fixture that exits non-zero even when stdout matches", func() {
		writeFixture("hello.fnk", "@EXPECTED\nhello\n@SOURCE\nprint(\"hello\")\n")
		tc.exitCode = 1

		stats, err := run("")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Failed).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("FAILED TEST hello.fnk\nhello\n"))
	})

	It("aborts on an annotated fixture without @SOURCE", func() {
		path := writeFixture("broken.fnk", "@EXPECTED\nhello\nprint(\"hello\")\n")

		_, err := run("")
		Expect(err).To(MatchError(fixtures.ErrMalformedFixture))
		Expect(err.Error()).To(ContainSubstring(path))
		Expect(out.String()).To(ContainSubstring("Running test broken.fnk... Error"))
		Expect(out.String()).NotTo(ContainSubstring("TEST RESULTS"))
	})

	It("aborts before running anything when the build fails", func() {
		writeFixture("ok.fnk", "let x = 1\n")
		tc.buildErr = errors.New("exit status 1")

		_, err := run("")
		Expect(err).To(MatchError(fixtures.ErrBuildFailed))
		Expect(tc.inputs).To(BeEmpty())
		Expect(out.String()).NotTo(ContainSubstring("Running test"))
		Expect(out.String()).NotTo(ContainSubstring("TEST RESULTS"))
	})

	It("aborts when the build leaves no binary", func() {
		writeFixture("ok.fnk", "let x = 1\n")
		tc.skipBinary = true

		_, err := run("")
		Expect(err).To(MatchError(fixtures.ErrBinaryMissing))
		Expect(tc.inputs).To(BeEmpty())
		Expect(out.String()).NotTo(ContainSubstring("TEST RESULTS"))
	})

	It("reports an empty run", func() {
		stats, err := run("")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(Equal(fixtures.Stats{}))
		Expect(out.String()).To(ContainSubstring("Passed 0/0.\n0 tests failed.\n"))
	})

	It("runs fixtures one at a time in discovery order", func() {
		paths := []string{
			writeFixture("a.fnk", "print(\"a\")\n"),
			writeFixture("b/c.fnk", "print(\"c\")\n"),
			writeFixture("d.fnk", "print(\"d\")\n"),
		}
		discovered, err := fixtures.Discover(testsDir, "fnk", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(discovered).To(ConsistOf(paths))

		_, err = run("")
		Expect(err).NotTo(HaveOccurred())
		Expect(tc.inputs).To(Equal(discovered))
	})

	It("only runs fixtures matching the filter", func() {
		writeFixture("records_basic.fnk", "let x = 1\n")
		writeFixture("strings.fnk", "let y = 2\n")
		writeFixture("records/strings_in_records.fnk", "let z = 3\n")

		stats, err := run("str")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Total).To(Equal(2))
		Expect(out.String()).NotTo(ContainSubstring("records_basic.fnk"))
		Expect(out.String()).To(ContainSubstring(filepath.Join("records", "strings_in_records.fnk")))
	})

	It("releases every temporary source right after its run", func() {
		writeFixture("a.fnk", "@EXPECTED\na\n@SOURCE\nprint(\"a\")\n")
		writeFixture("b.fnk", "@EXPECTED\nnope\n@SOURCE\nprint(\"b\")\n")
		writeFixture("c.fnk", "print(\"c\")\n")

		var stillPresent []string
		tc.onRun = func(string) {
			for _, previous := range tc.inputs[:len(tc.inputs)-1] {
				if _, err := os.Stat(previous); err == nil && filepath.Dir(previous) != testsDir {
					stillPresent = append(stillPresent, previous)
				}
			}
		}

		stats, err := run("")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(Equal(fixtures.Stats{Total: 3, Passed: 2, Failed: 1}))
		Expect(stillPresent).To(BeEmpty())
		for _, input := range tc.inputs[:2] {
			Expect(input).NotTo(BeAnExistingFile())
		}
		Expect(tc.inputs[2]).To(BeAnExistingFile())
	})

	It("releases the temporary source when the interpreter run panics", func() {
		writeFixture("a.fnk", "@EXPECTED\na\n@SOURCE\nprint(\"a\")\n")
		tc.onRun = func(string) { panic("interpreter crashed") }

		Expect(func() { _, _ = run("") }).To(PanicWith("interpreter crashed"))
		Expect(tc.inputs).To(HaveLen(1))
		Expect(tc.inputs[0]).NotTo(BeAnExistingFile())
	})
})
