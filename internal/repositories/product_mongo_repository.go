package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"catalog/internal/models"
	"catalog/internal/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductsCollection is the collection products are stored in.
const ProductsCollection = "products"

// productDocument is the stored shape of a product.
type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	InStock     bool               `bson:"inStock"`
	Quantity    int                `bson:"quantity"`
	Tags        []string           `bson:"tags"`
	ImageURL    string             `bson:"imageUrl"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toDocument(p *models.Product) productDocument {
	doc := productDocument{
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Category:    string(p.Category),
		InStock:     p.InStock,
		Quantity:    p.Quantity,
		Tags:        p.Tags,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if oid, err := primitive.ObjectIDFromHex(p.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d productDocument) toModel() models.Product {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Category:    models.Category(d.Category),
		InStock:     d.InStock,
		Quantity:    d.Quantity,
		Tags:        tags,
		ImageURL:    d.ImageURL,
		// Mongo stores milliseconds in UTC.
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// MongoProductRepository is a MongoDB implementation of ProductRepository.
type MongoProductRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoProductRepository creates a repository over the products collection of db.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		client:     db.Client(),
		collection: db.Collection(ProductsCollection),
	}
}

// ValidID accepts 24 character hex ObjectIDs.
func (r *MongoProductRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// Create inserts a product and assigns its ID.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	stamp(product, time.Now())
	doc := toDocument(product)
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = doc.ID.Hex()
	return nil
}

// CreateMany inserts all products inside a transaction. Transactions need a
// replica set or a sharded cluster.
func (r *MongoProductRepository) CreateMany(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, len(products))
	ids := make([]primitive.ObjectID, len(products))
	for i, p := range products {
		stamp(p, now)
		doc := toDocument(p)
		doc.ID = primitive.NewObjectID()
		docs[i] = doc
		ids[i] = doc.ID
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.collection.InsertMany(sc, docs)
	})
	if err != nil {
		return fmt.Errorf("failed to create products: %w", err)
	}

	for i, p := range products {
		p.ID = ids[i].Hex()
	}
	return nil
}

// GetByID finds a product by its ObjectID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	product := doc.toModel()
	return &product, nil
}

// Find returns the products selected by q.
func (r *MongoProductRepository) Find(ctx context.Context, q query.Query) ([]models.Product, error) {
	cursor, err := r.collection.Find(ctx, filterDocument(q.Filter), findOptions(q))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toModel())
	}
	return products, nil
}

// Count returns the number of products matching f.
func (r *MongoProductRepository) Count(ctx context.Context, f query.Filter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, filterDocument(f))
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Update sets every mutable field and returns the updated document.
func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(product.ID)
	if err != nil {
		return nil, ErrInvalidID
	}

	product.UpdatedAt = time.Now()
	doc := toDocument(product)
	update := bson.M{"$set": bson.M{
		"name":        doc.Name,
		"price":       doc.Price,
		"description": doc.Description,
		"category":    doc.Category,
		"inStock":     doc.InStock,
		"quantity":    doc.Quantity,
		"tags":        doc.Tags,
		"imageUrl":    doc.ImageURL,
		"updatedAt":   doc.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated productDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	result := updated.toModel()
	return &result, nil
}

// Delete removes a product and returns the removed document.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc productDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	product := doc.toModel()
	return &product, nil
}

// EnsureIndexes creates the indexes list queries rely on.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateMany(ctx, indexModels()); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

func indexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
}

// filterDocument translates a filter into a Mongo query document.
func filterDocument(f query.Filter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.InStock != nil {
		filter["inStock"] = *f.InStock
	}
	if f.HasPriceRange() {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return filter
}

func findOptions(q query.Query) *options.FindOptions {
	field, dir := q.Sort.Field, int(q.Sort.Direction)
	if !query.SortableFields[field] {
		field, dir = query.DefaultSortField, int(query.Descending)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.Skip))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func stamp(p *models.Product, now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	p.CreatedAt = now
	p.UpdatedAt = now
}
