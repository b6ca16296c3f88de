// Package cloud performs the Azure operations components need during
// provisioning and deployment.
package cloud

import "context"

// Target is the subscription and resource group resources are created in.
type Target struct {
	SubscriptionID string
	ResourceGroup  string
	Location       string
}

// Subscription is an Azure subscription the signed-in account can use.
type Subscription struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// ResourceGroup is an Azure resource group.
type ResourceGroup struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// IoTHub is an Azure IoT Hub.
type IoTHub struct {
	Name          string `json:"name"`
	ResourceGroup string `json:"resourcegroup"`
	Location      string `json:"location"`
}

// DeviceIdentity is a device registered in an IoT Hub.
type DeviceIdentity struct {
	DeviceID string `json:"deviceId"`
}

// Toolkit is the cloud collaborator. Every method blocks until the
// operation has completed.
type Toolkit interface {
	// LoggedIn reports whether an Azure account is signed in.
	LoggedIn(ctx context.Context) (bool, error)
	// Login signs in interactively.
	Login(ctx context.Context) error
	Subscriptions(ctx context.Context) ([]Subscription, error)
	ResourceGroups(ctx context.Context, subscriptionID string) ([]ResourceGroup, error)
	CreateResourceGroup(ctx context.Context, subscriptionID, name, location string) (*ResourceGroup, error)
	Locations(ctx context.Context, subscriptionID string) ([]string, error)

	IoTHubs(ctx context.Context, target Target) ([]IoTHub, error)
	CreateIoTHub(ctx context.Context, target Target, name, sku string) (*IoTHub, error)
	IoTHubConnectionString(ctx context.Context, target Target, hubName string) (string, error)

	// Device identity operations authenticate with a hub connection string.
	Devices(ctx context.Context, hubConnectionString string) ([]DeviceIdentity, error)
	CreateDevice(ctx context.Context, hubConnectionString, deviceID string) (*DeviceIdentity, error)
	DeviceConnectionString(ctx context.Context, hubConnectionString, deviceID string) (string, error)

	CreateFunctionApp(ctx context.Context, target Target, name string) error
	SetFunctionAppSettings(ctx context.Context, target Target, name string, settings map[string]string) error
	PublishFunctionApp(ctx context.Context, folder, name string) error

	// CreateCosmosDB creates an account with one SQL database and container
	// and returns the account endpoint.
	CreateCosmosDB(ctx context.Context, target Target, account, database, container string) (string, error)

	CreateStreamAnalyticsJob(ctx context.Context, target Target, name string) error
	UpdateStreamAnalyticsQuery(ctx context.Context, target Target, job, query string) error
	StartStreamAnalyticsJob(ctx context.Context, target Target, job string) error
}
