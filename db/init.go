package db

import (
	"context"

	"github.com/SaiNageswarS/go-api-boot/odm"
)

func InitEmployeeDeskDB(ctx context.Context, mongo odm.MongoClient, tenant string) error {
	err := odm.EnsureIndexes[ChatExchangeModel](ctx, mongo, tenant)
	if err != nil {
		return err
	}

	err = odm.EnsureIndexes[OrgConfigModel](ctx, mongo, tenant)
	if err != nil {
		return err
	}

	err = odm.EnsureIndexes[DocumentModel](ctx, mongo, tenant)
	if err != nil {
		return err
	}

	return nil
}
