package validation

import (
	"context"
	"log/slog"
	"testing"

	"github.com/panbanda/tombstone/internal/logging"
	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/panbanda/tombstone/pkg/semantic"
	"github.com/panbanda/tombstone/pkg/syntax"
	"github.com/panbanda/tombstone/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceFile struct {
	path string
	src  string
}

type testProject struct {
	name  string
	kind  workspace.OutputKind
	files []sourceFile
}

// buildSolution parses every file and wires documents to one shared index,
// the way workspace.Load does.
func buildSolution(t *testing.T, projects ...testProject) *workspace.Solution {
	t.Helper()
	p := parser.New()
	defer p.Close()

	var trees []*syntax.Tree
	for _, proj := range projects {
		for _, f := range proj.files {
			result, err := p.Parse(context.Background(), []byte(f.src), parser.LangCSharp, f.path)
			require.NoError(t, err)
			tree := syntax.NewTree(result)
			t.Cleanup(tree.Close)
			trees = append(trees, tree)
		}
	}
	idx, err := semantic.NewIndex(context.Background(), trees...)
	require.NoError(t, err)

	var built []*workspace.Project
	next := 0
	for _, proj := range projects {
		var docs []*workspace.Document
		for _, f := range proj.files {
			tree := trees[next]
			next++
			docs = append(docs, workspace.NewDocument(f.path, tree, idx.Model(tree)))
		}
		built = append(built, workspace.NewProject(proj.name, proj.name+".csproj", proj.kind, docs...))
	}
	return workspace.NewSolution("Test.sln", built...)
}

// analyze runs both rules over sol and returns the rendered diagnostics in
// report order plus the logged records.
func analyze(t *testing.T, sol *workspace.Solution) ([]string, []slog.Record) {
	t.Helper()
	collect := logging.NewCollectHandler(nil)
	logger := slog.New(collect)

	var lines []string
	exec := NewExecutor(sol,
		NewPipeline(NewMethodRule(logger), NewMemberRule(logger)),
		WithContextHook(func(sc *SyntaxContext) {
			for _, d := range sc.Diagnostics() {
				lines = append(lines, d.Line())
			}
		}))
	require.NoError(t, exec.Execute(context.Background()))
	return lines, collect.Records()
}

func single(name string, kind workspace.OutputKind, path, src string) testProject {
	return testProject{name: name, kind: kind, files: []sourceFile{{path: path, src: src}}}
}

func TestLibraryIgnoresPublicMembers(t *testing.T) {
	sol := buildSolution(t, single("Lib", workspace.OutputLibrary, "/src/Api.cs", `public class Api
{
    public void Exposed() { }
    private void Hidden() { }
}`))

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/Api.cs(4,5) Method 'Hidden()' can be removed, as it's not used.",
	}, lines)
}

func TestExecutableReportsPublicMembers(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/Api.cs", `public class Api
{
    public void Exposed() { }
}`))

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/Api.cs(3,5) Method 'Exposed()' can be removed, as it's not used.",
	}, lines)
}

func TestEntryPointExemption(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/Program.cs", `namespace App
{
    class Program
    {
        static void Main(string[] args) { Run(); }
        static void Run() { }
    }
}`))

	lines, _ := analyze(t, sol)
	assert.Empty(t, lines)
}

func TestEntryPointRequiresStaticMainOnProgram(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/Entry.cs", `class Program
{
    void Main() { }
}
class Tool
{
    static void Main() { }
}`))

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/Entry.cs(3,5) Method 'Main()' can be removed, as it's not used.",
		"/src/Entry.cs(7,5) Method 'Main()' can be removed, as it's not used.",
	}, lines)
}

func TestReferenceRemoval(t *testing.T) {
	withCall := `class Worker
{
    void M() { }
    void N() { M(); }
}`
	withoutCall := `class Worker
{
    void M() { }
    void N() { }
}`

	lines, _ := analyze(t, buildSolution(t, single("App", workspace.OutputExecutable, "/src/Worker.cs", withCall)))
	assert.Equal(t, []string{
		"/src/Worker.cs(4,5) Method 'N()' can be removed, as it's not used.",
	}, lines)

	lines, _ = analyze(t, buildSolution(t, single("App", workspace.OutputExecutable, "/src/Worker.cs", withoutCall)))
	assert.Equal(t, []string{
		"/src/Worker.cs(3,5) Method 'M()' can be removed, as it's not used.",
		"/src/Worker.cs(4,5) Method 'N()' can be removed, as it's not used.",
	}, lines)
}

const (
	settingsSource = `using System;

class Settings
{
    public Func<int> Provider = () => 1;
    public Action Unused;
}`

	consumerSource = `class Consumer
{
    private readonly Settings settings = new Settings();

    public int Read() { return settings.Provider(); }
}`
)

func TestCrossDocumentReference(t *testing.T) {
	sol := buildSolution(t, testProject{
		name: "App",
		kind: workspace.OutputExecutable,
		files: []sourceFile{
			{path: "/src/Settings.cs", src: settingsSource},
			{path: "/src/Consumer.cs", src: consumerSource},
		},
	})

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/Settings.cs(6,5) Member 'public Action Unused;' can be removed, as it's not used.",
		"/src/Consumer.cs(5,5) Method 'Read()' can be removed, as it's not used.",
		"/src/Consumer.cs(3,5) Member 'private readonly Settings settings = new Settings();' can be removed, as it's not used.",
	}, lines)
}

func TestCrossProjectReference(t *testing.T) {
	sol := buildSolution(t,
		single("Core", workspace.OutputExecutable, "/core/Settings.cs", settingsSource),
		single("App", workspace.OutputExecutable, "/app/Consumer.cs", consumerSource),
	)

	lines, _ := analyze(t, sol)
	for _, line := range lines {
		assert.NotContains(t, line, "Provider")
	}
}

func TestReferencesOutsideScopeAreNotSeen(t *testing.T) {
	sol := buildSolution(t, testProject{
		name: "App",
		kind: workspace.OutputExecutable,
		files: []sourceFile{
			{path: "/src/Settings.cs", src: settingsSource},
			{path: "/src/Consumer.cs", src: consumerSource},
		},
	})
	project := sol.Projects()[0]
	doc := project.Documents()[0]
	tree, err := doc.SyntaxTree(context.Background())
	require.NoError(t, err)
	model, err := doc.SemanticModel(context.Background())
	require.NoError(t, err)

	sc := NewSyntaxContext(project, doc, tree, model, nil)
	require.NoError(t, NewMemberRule(nil).Validate(context.Background(), sc))

	var flagged []string
	for _, d := range sc.Diagnostics() {
		flagged = append(flagged, d.String())
	}
	assert.Equal(t, []string{"public Func<int> Provider = () => 1;", "public Action Unused;"}, flagged)
}

func TestCyclesCountAsUsed(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/Loop.cs", `class Loop
{
    void Self() { Self(); }
    void Ping() { Pong(); }
    void Pong() { Ping(); }
    void Orphan() { }
}`))

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/Loop.cs(6,5) Method 'Orphan()' can be removed, as it's not used.",
	}, lines)
}

func TestOptionalAndParamsCallsCountAsUsed(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/A.cs", `class Program
{
    static void Main() { new A().Run(); }
}
class A
{
    void Log(string m, int level = 0) { }
    void Sum(params int[] xs) { }
    void F(int a) { }
    void F(string s) { }
    public void Run()
    {
        Log("x");
        Sum(1, 2, 3);
        var x = External.Make();
        F(x);
    }
}`))

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/A.cs(9,5) Method 'F(int a)' can be removed, as it's not used.",
		"/src/A.cs(10,5) Method 'F(string s)' can be removed, as it's not used.",
	}, lines)
}

func TestIdenticalDeclarationsAreDistinct(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/Twins.cs", `class A
{
    void Run() { }
}
class B
{
    void Run() { }
    void Go() { new A().Run(); }
}`))

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/Twins.cs(7,5) Method 'Run()' can be removed, as it's not used.",
		"/src/Twins.cs(8,5) Method 'Go()' can be removed, as it's not used.",
	}, lines)
}

func TestMembersNeedCallShapedReferences(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/Store.cs", `using System;

class Store
{
    private int count;
    private Func<int> factory;
    public event Action Changed;
    Func<int> Getter { get; }

    public int Next()
    {
        count++;
        Changed();
        return factory() + Getter();
    }
}`))

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/src/Store.cs(10,5) Method 'Next()' can be removed, as it's not used.",
		"/src/Store.cs(5,5) Member 'private int count;' can be removed, as it's not used.",
	}, lines)
}

func TestSignatureRendering(t *testing.T) {
	sol := buildSolution(t, single("App", workspace.OutputExecutable, "/src/Calc.cs", `class Calc
{
    public override string Method(int value = 10, params string[] rest) { return ""; }
}`))

	lines, records := analyze(t, sol)
	require.Len(t, lines, 1)
	assert.Equal(t, "/src/Calc.cs(3,5) Method 'Method(int value = 10, params string[] rest)' can be removed, as it's not used.", lines[0])

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, slog.LevelError, r.Level)
	assert.Equal(t, UnusedMessage, r.Message)
	attrs := logging.Attrs(r)
	assert.Equal(t, "/src/Calc.cs", attrs[logging.KeyFile].String())
	assert.Equal(t, int64(3), attrs[logging.KeyLine].Int64())
	assert.Equal(t, int64(5), attrs[logging.KeyColumn].Int64())
	assert.Equal(t, "Method", attrs[logging.KeyKind].String())
	assert.Equal(t, "Method(int value = 10, params string[] rest)", attrs[logging.KeySignature].String())
}

func TestProjectsKeepTheirOwnOutputKind(t *testing.T) {
	sol := buildSolution(t,
		single("Lib", workspace.OutputLibrary, "/lib/Api.cs", `public class Api
{
    public void Exposed() { }
}`),
		single("App", workspace.OutputExecutable, "/app/Tool.cs", `public class Tool
{
    public void Exposed() { }
}`),
	)

	lines, _ := analyze(t, sol)
	assert.Equal(t, []string{
		"/app/Tool.cs(3,5) Method 'Exposed()' can be removed, as it's not used.",
	}, lines)
}
