// Package model defines core data structures for iotwb.
package model

// ComponentType identifies a component variant.
type ComponentType string

const (
	// ComponentDevice is a physical board running the device code.
	ComponentDevice ComponentType = "Device"
	// ComponentIoTHub is an Azure IoT Hub.
	ComponentIoTHub ComponentType = "IoTHub"
	// ComponentAzureFunctions is an Azure Function App.
	ComponentAzureFunctions ComponentType = "AzureFunctions"
	// ComponentCosmosDB is an Azure Cosmos DB account.
	ComponentCosmosDB ComponentType = "CosmosDB"
	// ComponentStreamAnalyticsJob is an Azure Stream Analytics job.
	ComponentStreamAnalyticsJob ComponentType = "StreamAnalyticsJob"
	// ComponentIoTHubDevice is a device identity registered in an IoT Hub.
	ComponentIoTHubDevice ComponentType = "IoTHubDevice"
)

// DependencyType is the kind of a dependency edge.
type DependencyType string

const (
	// DependencyInput marks a component consumed as a data source.
	DependencyInput DependencyType = "Input"
	// DependencyOutput marks a component written to.
	DependencyOutput DependencyType = "Output"
	// DependencyOther marks any other relation, e.g. a query sink.
	DependencyOther DependencyType = "Other"
)

// TemplateType selects which components a new project is created with.
type TemplateType string

const (
	TemplateBasic           TemplateType = "Basic"
	TemplateIotHub          TemplateType = "IotHub"
	TemplateAzureFunctions  TemplateType = "AzureFunctions"
	TemplateStreamAnalytics TemplateType = "StreamAnalytics"
)

// Board identifiers understood by the device factory.
const (
	BoardDevKit      = "devkit"
	BoardESP32       = "esp32"
	BoardIoTButton   = "iotbutton"
	BoardRaspberryPi = "raspberrypi"
)

// ConfigKey names a scalar project setting.
type ConfigKey string

const (
	ConfigDevicePath                   ConfigKey = "devicePath"
	ConfigBoardID                      ConfigKey = "boardId"
	ConfigFunctionPath                 ConfigKey = "functionPath"
	ConfigAsaPath                      ConfigKey = "asaPath"
	ConfigShownHelpPage                ConfigKey = "shownHelpPage"
	ConfigIoTHubConnectionString       ConfigKey = "iothubConnectionString"
	ConfigIoTHubDeviceConnectionString ConfigKey = "iothubDeviceConnectionString"
	ConfigRaspberryPiHost              ConfigKey = "raspberryPiHost"
	ConfigRaspberryPiUser              ConfigKey = "raspberryPiUser"
	ConfigRaspberryPiPath              ConfigKey = "raspberryPiPath"
)

// SettingsNamespace prefixes every key written to a workspace descriptor.
const SettingsNamespace = "IoTWorkbench"

// Namespaced returns the key as stored in the settings file.
func (k ConfigKey) Namespaced() string {
	return SettingsNamespace + "." + string(k)
}

// Well-known folder and file names inside a project.
const (
	DeviceFolderName        = "Device"
	FunctionFolderName      = "Functions"
	AsaFolderName           = "StreamAnalytics"
	AsaQueryFileName        = "query.asaql"
	WorkspaceExtension      = ".code-workspace"
	ProjectMarkerFileName   = ".iotworkbenchproject"
	AzureConfigFolderName   = ".azurecomponent"
	AzureConfigFileName     = "azureconfig.json"
	ArduinoDescriptorFolder = ".vscode"
	ArduinoDescriptorFile   = "arduino.json"
)
