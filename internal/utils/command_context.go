package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	transportNameContextKeyConstant         = commandContextKey("transportName")
)

type commandContextKey string

// CommandContextAccessor stores run metadata resolved during configuration in the command context.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path that was loaded, possibly empty.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithTransportName attaches the name of the selected GitHub transport.
func (accessor CommandContextAccessor) WithTransportName(parentContext context.Context, transportName string) context.Context {
	return withValue(parentContext, transportNameContextKeyConstant, transportName)
}

// TransportName extracts the selected GitHub transport name.
func (accessor CommandContextAccessor) TransportName(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, transportNameContextKeyConstant)
}

func withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	return value, available
}
