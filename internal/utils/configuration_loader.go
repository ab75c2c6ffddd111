package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeySeparatorConstant               = "."
	environmentKeySeparatorConstant                 = "_"
	sliceValueSeparatorConstant                     = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
)

// ConfigurationLoader resolves settings from layered sources. Caller defaults rank lowest,
// then the embedded configuration, then a configuration file, then prefixed environment
// variables. Command flags are applied by callers on top of the result.
type ConfigurationLoader struct {
	configurationName string
	configurationType string
	environmentPrefix string
	searchPaths       []string
	embedded          embeddedConfiguration
}

type embeddedConfiguration struct {
	content           []byte
	configurationType string
}

// LoadedConfiguration reports where settings came from.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader returns a loader looking for configurationName in searchPaths, in order.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration replaces the embedded defaults layer. An empty configurationType
// falls back to the loader's own type.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embedded = embeddedConfiguration{
		content:           append([]byte(nil), configurationData...),
		configurationType: strings.TrimSpace(configurationType),
	}
}

// LoadConfiguration decodes the merged layers into targetConfiguration. An explicit
// configurationFilePath replaces the search paths and must exist. Comma separated strings
// decode into slices so list settings such as roots fit in one environment variable.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()

	if mergeError := loader.mergeEmbedded(viperInstance); mergeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}
	if readError := loader.mergeFile(viperInstance, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
	}
	loader.bindEnvironment(viperInstance)

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(sliceValueSeparatorConstant),
	))
	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, decodeHook); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) mergeEmbedded(viperInstance *viper.Viper) error {
	if len(loader.embedded.content) == 0 {
		return nil
	}
	configurationType := loader.configurationType
	if len(loader.embedded.configurationType) > 0 {
		configurationType = loader.embedded.configurationType
	}
	viperInstance.SetConfigType(configurationType)
	return viperInstance.MergeConfig(bytes.NewReader(loader.embedded.content))
}

// mergeFile layers the configuration file over the embedded defaults. A file missing from
// every search path is not an error.
func (loader *ConfigurationLoader) mergeFile(viperInstance *viper.Viper, configurationFilePath string) error {
	viperInstance.SetConfigType(loader.configurationType)
	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	} else {
		viperInstance.SetConfigName(loader.configurationName)
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
	}

	readError := viperInstance.MergeInConfig()
	var notFoundError viper.ConfigFileNotFoundError
	if errors.As(readError, &notFoundError) {
		return nil
	}
	return readError
}

func (loader *ConfigurationLoader) bindEnvironment(viperInstance *viper.Viper) {
	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	viperInstance.AutomaticEnv()
}
