package db

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
)

// DynamoDBDatabase is the server directory, one row per claimed (region,
// slot) pair.
type DynamoDBDatabase struct {
	svc          *dynamodb.DynamoDB
	db           *dynamo.DB
	serversTable dynamo.Table
}

func NewDynamoDBDatabase(sess *session.Session, stage string) (*DynamoDBDatabase, error) {
	ddb := &DynamoDBDatabase{svc: dynamodb.New(sess)}
	ddb.db = dynamo.NewFromIface(ddb.svc)
	ddb.serversTable = ddb.db.Table("worldstream-" + stage + "-servers")
	return ddb, nil
}

// UpdateServer writes server's row unless a different, still-live session
// already holds the slot (TTL not yet expired) — a conditional put guards
// against two instances racing to claim the same slot after a redeploy,
// so the row is never silently overwritten out from under a live server.
func (ddb *DynamoDBDatabase) UpdateServer(server Server) error {
	err := ddb.serversTable.Put(server).
		If("attribute_not_exists(slot) OR session = ? OR ttl < ?", server.Session, time.Now().Unix()).
		Run()
	if _, ok := err.(*dynamodb.ConditionalCheckFailedException); ok {
		return fmt.Errorf("db: slot %d region %s held by a live session other than %q", server.Slot, server.Region, server.Session)
	}
	return err
}

func (ddb *DynamoDBDatabase) ReadServers() (servers []Server, err error) {
	query := ddb.serversTable.Scan().Iter()
	for {
		var server Server
		if !query.Next(&server) {
			return servers, query.Err()
		}
		servers = append(servers, server)
	}
}

func (ddb *DynamoDBDatabase) ReadServersByRegion(region string) (servers []Server, err error) {
	query := ddb.serversTable.Get("region", region).Iter()
	for {
		var server Server
		if !query.Next(&server) {
			return servers, query.Err()
		}
		servers = append(servers, server)
	}
}
