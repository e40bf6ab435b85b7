package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_grocery/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoPincodeRepository struct {
	collection *mongo.Collection
}

func NewPincodeRepository(db *mongo.Database) PincodeRepository {
	return &mongoPincodeRepository{collection: db.Collection("pincodes")}
}

func (r *mongoPincodeRepository) FindTier(ctx context.Context, postalCode int) (*domain.DeliveryTier, error) {
	var tier domain.DeliveryTier
	err := r.collection.FindOne(ctx, bson.M{"pincode": postalCode}).Decode(&tier)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to find delivery tier: %w", err)
	}
	return &tier, nil
}

func (r *mongoPincodeRepository) InsertTier(ctx context.Context, tier domain.DeliveryTier) error {
	if _, err := r.collection.InsertOne(ctx, tier); err != nil {
		return fmt.Errorf("failed to insert delivery tier %d: %w", tier.PostalCode, err)
	}
	return nil
}
