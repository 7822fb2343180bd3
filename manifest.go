package mosquittobuild

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// translatorManifest is the c-for-go project file. Field names follow
// c-for-go's YAML schema.
type translatorManifest struct {
	Generator  generatorSection  `yaml:"GENERATOR"`
	Parser     parserSection     `yaml:"PARSER"`
	Translator translatorSection `yaml:"TRANSLATOR"`
}

type generatorSection struct {
	PackageName        string      `yaml:"PackageName"`
	PackageDescription string      `yaml:"PackageDescription"`
	PackageLicense     string      `yaml:"PackageLicense,omitempty"`
	Includes           []string    `yaml:"Includes"`
	FlagGroups         []flagGroup `yaml:"FlagGroups,omitempty"`
}

type flagGroup struct {
	Name   string   `yaml:"name"`
	Traits []string `yaml:"traits,omitempty"`
	Flags  []string `yaml:"flags"`
}

type parserSection struct {
	IncludePaths []string `yaml:"IncludePaths"`
	SourcesPaths []string `yaml:"SourcesPaths"`
}

type translatorSection struct {
	ConstRules map[string]string          `yaml:"ConstRules"`
	Rules      map[string][]translateRule `yaml:"Rules"`
}

type translateRule struct {
	Action    string `yaml:"action,omitempty"`
	From      string `yaml:"from,omitempty"`
	To        string `yaml:"to,omitempty"`
	Transform string `yaml:"transform,omitempty"`
	Load      string `yaml:"load,omitempty"`
}

// exportedPrefixes are the identifier prefixes of mosquitto's public API,
// including the MQTT v5 property types mosquitto.h pulls in.
var exportedPrefixes = []string{"^mosquitto_", "^MOSQ_", "^LIBMOSQUITTO_", "^mqtt5_", "^MQTT_"}

// newTranslatorManifest describes a translation of wrapperHeader with
// includeDir as the only header search path.
func newTranslatorManifest(config *Config, artifact *Artifact, wrapperHeader string) *translatorManifest {
	global := make([]translateRule, 0, len(exportedPrefixes)+1)
	for _, prefix := range exportedPrefixes {
		global = append(global, translateRule{Action: "accept", From: prefix})
	}
	global = append(global, translateRule{Transform: "export"})

	return &translatorManifest{
		Generator: generatorSection{
			PackageName:        config.Bindings.Package,
			PackageDescription: fmt.Sprintf("Package %s provides Go bindings for libmosquitto %s.", config.Bindings.Package, config.LibraryVersion()),
			Includes:           []string{"mosquitto.h"},
			FlagGroups: []flagGroup{
				{Name: "CFLAGS", Flags: []string{"-I" + artifact.IncludeDir}},
				{Name: "LDFLAGS", Flags: []string{"-L" + artifact.LibDir, "-l" + libraryName}},
			},
		},
		Parser: parserSection{
			IncludePaths: []string{artifact.IncludeDir},
			SourcesPaths: []string{wrapperHeader},
		},
		Translator: translatorSection{
			ConstRules: map[string]string{
				"defines": "expand",
				"enum":    "expand",
			},
			Rules: map[string][]translateRule{
				"global":  global,
				"private": {{Transform: "unexport"}},
				"post-global": {
					{Action: "replace", From: "_$"},
					{Load: "snakecase"},
				},
			},
		},
	}
}

// Marshal renders the manifest as YAML.
func (m *translatorManifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}
