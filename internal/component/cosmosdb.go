package component

import (
	"context"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
)

// Keys recorded by CosmosDB.
const (
	InfoCosmosDBAccount   = "cosmosDBAccountName"
	InfoCosmosDBEndpoint  = "cosmosDBEndpoint"
	InfoCosmosDBDatabase  = "cosmosDBDatabase"
	InfoCosmosDBContainer = "cosmosDBContainer"
)

// Names of the SQL database and container telemetry is stored in.
const (
	CosmosDBDatabase  = "iotworkbench"
	CosmosDBContainer = "telemetry"
)

// CosmosDB is a Cosmos DB account used as a Stream Analytics sink.
type CosmosDB struct {
	cloudBase
}

func NewCosmosDB(env Env, id string, deps []Dependency) *CosmosDB {
	return &CosmosDB{cloudBase: newCloudBase(env, model.ComponentCosmosDB, id, "Cosmos DB", deps)}
}

func (c *CosmosDB) Load(ctx context.Context) (bool, error) {
	return c.loadInfo(ctx)
}

func (c *CosmosDB) Create(ctx context.Context) (bool, error) {
	if err := c.appendRecord(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Provision creates the account with its database and container.
func (c *CosmosDB) Provision(ctx context.Context, target cloud.Target) (bool, error) {
	account, ok, err := askName(ctx, c.env.Prompter, "Enter Cosmos DB account name", c.info[InfoCosmosDBAccount], cosmosAccountRule)
	if err != nil || !ok {
		return false, err
	}

	c.env.Logger.Info().Str("account", account).Msg("Creating Cosmos DB account, this may take a few minutes")
	endpoint, err := c.env.Toolkit.CreateCosmosDB(ctx, target, account, CosmosDBDatabase, CosmosDBContainer)
	if err != nil {
		return false, err
	}

	if err := c.saveTarget(ctx, target, map[string]string{
		InfoCosmosDBAccount:   account,
		InfoCosmosDBEndpoint:  endpoint,
		InfoCosmosDBDatabase:  CosmosDBDatabase,
		InfoCosmosDBContainer: CosmosDBContainer,
	}); err != nil {
		return false, err
	}
	return true, nil
}
