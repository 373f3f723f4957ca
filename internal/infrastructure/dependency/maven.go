package dependency

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type pomFile struct {
	Properties           pomProperties   `xml:"properties"`
	Dependencies         []pomDependency `xml:"dependencies>dependency"`
	DependencyManagement struct {
		Dependencies []pomDependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`
}

type pomProperties struct {
	Entries []pomProperty `xml:",any"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// parsePOM reads direct and managed dependencies, resolving ${property}
// versions from the <properties> block.
func parsePOM(content []byte) ([]declared, error) {
	var pom pomFile
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Strict = false
	if err := dec.Decode(&pom); err != nil {
		return nil, err
	}
	props := map[string]string{}
	for _, p := range pom.Properties.Entries {
		props[p.XMLName.Local] = strings.TrimSpace(p.Value)
	}
	lines := splitLines(content)

	all := append(append([]pomDependency(nil), pom.Dependencies...), pom.DependencyManagement.Dependencies...)
	deps := make([]declared, 0, len(all))
	for _, d := range all {
		version := strings.TrimSpace(d.Version)
		if strings.HasPrefix(version, "${") && strings.HasSuffix(version, "}") {
			version = props[strings.TrimSuffix(strings.TrimPrefix(version, "${"), "}")]
		}
		deps = append(deps, declared{
			Name:    strings.TrimSpace(d.GroupID) + ":" + strings.TrimSpace(d.ArtifactID),
			Version: version,
			Line:    lineOf(lines, "<artifactId>"+strings.TrimSpace(d.ArtifactID)+"</artifactId>"),
		})
	}
	return deps, nil
}
