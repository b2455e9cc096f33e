package workspace

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// projectRef is one project entry of a .sln file.
type projectRef struct {
	Name string
	Path string
}

// Project("{FAE04EC0-...}") = "App", "src\App\App.csproj", "{GUID}"
var slnProjectLine = regexp.MustCompile(`^Project\("\{[^}]*\}"\)\s*=\s*"([^"]*)",\s*"([^"]*)",\s*"\{[^}]*\}"`)

// readSolution returns the C# projects listed in a .sln file, in file order.
// Solution folders and non-C# projects are skipped.
func readSolution(path string) ([]projectRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open solution: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var refs []projectRef
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := slnProjectLine.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		rel := filepath.FromSlash(strings.ReplaceAll(m[2], `\`, "/"))
		if !strings.EqualFold(filepath.Ext(rel), ".csproj") {
			continue
		}
		refs = append(refs, projectRef{Name: m[1], Path: filepath.Join(dir, rel)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}
	return refs, nil
}

// projectFile is the subset of a .csproj the loader needs.
type projectFile struct {
	XMLName     xml.Name `xml:"Project"`
	Sdk         string   `xml:"Sdk,attr"`
	SdkElements []struct {
		Name string `xml:"Name,attr"`
	} `xml:"Sdk"`
	PropertyGroups []struct {
		OutputType                string `xml:"OutputType"`
		AssemblyName              string `xml:"AssemblyName"`
		EnableDefaultCompileItems string `xml:"EnableDefaultCompileItems"`
	} `xml:"PropertyGroup"`
	ItemGroups []struct {
		Compile []struct {
			Include string `xml:"Include,attr"`
			Remove  string `xml:"Remove,attr"`
		} `xml:"Compile"`
	} `xml:"ItemGroup"`
}

// projectInfo is a parsed .csproj.
type projectInfo struct {
	Name         string
	Kind         OutputKind
	SDKStyle     bool
	DefaultItems bool
	Includes     []string
	Removes      []string
}

func readProject(path string) (*projectInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var pf projectFile
	if err := xml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}

	info := &projectInfo{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		SDKStyle: pf.Sdk != "" || len(pf.SdkElements) > 0,
	}
	info.DefaultItems = info.SDKStyle

	outputType := ""
	for _, pg := range pf.PropertyGroups {
		if v := strings.TrimSpace(pg.OutputType); v != "" {
			outputType = v
		}
		if v := strings.TrimSpace(pg.AssemblyName); v != "" && !strings.Contains(v, "$(") {
			info.Name = v
		}
		if strings.EqualFold(strings.TrimSpace(pg.EnableDefaultCompileItems), "false") {
			info.DefaultItems = false
		}
	}
	info.Kind = ParseOutputKind(outputType)

	for _, ig := range pf.ItemGroups {
		for _, c := range ig.Compile {
			info.Includes = append(info.Includes, splitItems(c.Include)...)
			info.Removes = append(info.Removes, splitItems(c.Remove)...)
		}
	}
	return info, nil
}

// splitItems splits a semicolon list of item specs into slash-separated
// patterns. Specs that use MSBuild properties cannot be evaluated and are
// dropped.
func splitItems(spec string) []string {
	var out []string
	for _, s := range strings.Split(spec, ";") {
		s = strings.TrimSpace(s)
		if s == "" || strings.Contains(s, "$(") || strings.Contains(s, "@(") {
			continue
		}
		out = append(out, strings.ReplaceAll(s, `\`, "/"))
	}
	return out
}
