// Copyright 2025 Edu Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota
	PluginTypeMetadata
)

// PluginTypeName returns the human-readable name for a plugin type
func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a single configurable option for a plugin. Dest
// points at the variable that receives the value.
type PluginOption struct {
	Dest         any
	DefaultValue any
	Name         string
	Description  string
	Type         PluginOptionType
}

// PluginEntry is a registered plugin implementation
type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var (
	pluginEntries      []PluginEntry
	pluginEntriesMutex sync.Mutex
)

// Register adds a plugin entry to the registry. It's called from init() in
// each plugin implementation package.
func Register(entry PluginEntry) {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	pluginEntries = append(pluginEntries, entry)
}

// GetPlugins returns the registered plugin entries for the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	ret := []PluginEntry{}
	for _, entry := range pluginEntries {
		if entry.Type == pluginType {
			ret = append(ret, entry)
		}
	}
	return ret
}

// GetPlugin instantiates the named plugin of the given type, or returns nil
// if no such plugin is registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	for _, entry := range pluginEntries {
		if entry.Type == pluginType && entry.Name == pluginName {
			return entry.NewFromOptionsFunc()
		}
	}
	return nil
}

// PopulateCmdlineOptions registers a command-line flag for every plugin
// option, named <type>-<plugin>-<option>, e.g. --blob-badger-data-dir
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		for j := range entry.Options {
			opt := &entry.Options[j]
			flagName := fmt.Sprintf(
				"%s-%s-%s",
				PluginTypeName(entry.Type),
				entry.Name,
				opt.Name,
			)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok || dest == nil {
					return fmt.Errorf(
						"option %s: invalid destination",
						flagName,
					)
				}
				defVal, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, flagName, defVal, opt.Description)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok || dest == nil {
					return fmt.Errorf(
						"option %s: invalid destination",
						flagName,
					)
				}
				defVal, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, flagName, defVal, opt.Description)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok || dest == nil {
					return fmt.Errorf(
						"option %s: invalid destination",
						flagName,
					)
				}
				defVal, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, flagName, defVal, opt.Description)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok || dest == nil {
					return fmt.Errorf(
						"option %s: invalid destination",
						flagName,
					)
				}
				defVal, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, flagName, defVal, opt.Description)
			default:
				return fmt.Errorf("option %s: unknown option type", flagName)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin option values from a parsed config file. The
// outer map is keyed by plugin type name ("blob", "metadata"), then plugin
// name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	for typeName, plugins := range pluginConfig {
		for pluginName, options := range plugins {
			entry := lookupEntry(typeName, pluginName)
			if entry == nil {
				return fmt.Errorf(
					"unknown %s plugin: %s",
					typeName,
					pluginName,
				)
			}
			for optName, value := range options {
				opt := lookupOption(entry, optName)
				if opt == nil {
					return fmt.Errorf(
						"unknown option %q for %s plugin %s",
						optName,
						typeName,
						pluginName,
					)
				}
				if err := assignOptionValue(opt, value); err != nil {
					return fmt.Errorf(
						"%s plugin %s: %w",
						typeName,
						pluginName,
						err,
					)
				}
			}
		}
	}
	return nil
}

// ProcessEnvVars reads plugin option values from the environment. Variables
// are named EDUCHAIN_<TYPE>_<PLUGIN>_<OPTION> with dashes replaced by
// underscores, e.g. EDUCHAIN_BLOB_BADGER_DATA_DIR.
func ProcessEnvVars() error {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		for j := range entry.Options {
			opt := &entry.Options[j]
			envName := strings.ToUpper(
				strings.ReplaceAll(
					fmt.Sprintf(
						"educhain_%s_%s_%s",
						PluginTypeName(entry.Type),
						entry.Name,
						opt.Name,
					),
					"-",
					"_",
				),
			)
			envVal, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			if err := assignOptionString(opt, envVal); err != nil {
				return fmt.Errorf("%s: %w", envName, err)
			}
		}
	}
	return nil
}

func lookupEntry(typeName string, pluginName string) *PluginEntry {
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		if PluginTypeName(entry.Type) == typeName &&
			entry.Name == pluginName {
			return entry
		}
	}
	return nil
}

func lookupOption(entry *PluginEntry, optName string) *PluginOption {
	for i := range entry.Options {
		if entry.Options[i].Name == optName {
			return &entry.Options[i]
		}
	}
	return nil
}

func assignOptionValue(opt *PluginOption, value any) error {
	switch opt.Type {
	case PluginOptionTypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf(
				"option %s: expected string, got %T",
				opt.Name,
				value,
			)
		}
		dest, ok := opt.Dest.(*string)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", opt.Name)
		}
		*dest = v
	case PluginOptionTypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf(
				"option %s: expected bool, got %T",
				opt.Name,
				value,
			)
		}
		dest, ok := opt.Dest.(*bool)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", opt.Name)
		}
		*dest = v
	case PluginOptionTypeInt:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf(
				"option %s: expected int, got %T",
				opt.Name,
				value,
			)
		}
		dest, ok := opt.Dest.(*int)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", opt.Name)
		}
		*dest = v
	case PluginOptionTypeUint:
		var v uint64
		switch tv := value.(type) {
		case uint64:
			v = tv
		case int:
			if tv < 0 {
				return fmt.Errorf("option %s: negative value", opt.Name)
			}
			v = uint64(tv)
		default:
			return fmt.Errorf(
				"option %s: expected uint, got %T",
				opt.Name,
				value,
			)
		}
		dest, ok := opt.Dest.(*uint64)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", opt.Name)
		}
		*dest = v
	default:
		return fmt.Errorf("option %s: unknown option type", opt.Name)
	}
	return nil
}

func assignOptionString(opt *PluginOption, value string) error {
	switch opt.Type {
	case PluginOptionTypeString:
		return assignOptionValue(opt, value)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", opt.Name, err)
		}
		return assignOptionValue(opt, v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", opt.Name, err)
		}
		return assignOptionValue(opt, v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("option %s: %w", opt.Name, err)
		}
		return assignOptionValue(opt, v)
	default:
		return fmt.Errorf("option %s: unknown option type", opt.Name)
	}
}
