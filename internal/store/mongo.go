package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"attendance-portal/internal/model"
)

// Mongo stores everything in three collections: students, attendance, users.
// A batch upsert is one ordered BulkWrite: each op is applied at most once
// and a failure part way leaves earlier ops in place.
type Mongo struct {
	client     *mongo.Client
	students   *mongo.Collection
	attendance *mongo.Collection
	users      *mongo.Collection
}

type studentDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SNo        int                `bson:"s_no"`
	RollNumber string             `bson:"roll_number"`
	Name       string             `bson:"name"`
	Branch     string             `bson:"branch"`
	Year       int                `bson:"year"`
	Contact    *string            `bson:"contact"`
}

type attendanceDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Date              time.Time          `bson:"date"`
	Branch            string             `bson:"branch"`
	Year              int                `bson:"year"`
	StudentRollNumber string             `bson:"student_roll_number"`
	Status            string             `bson:"status"`
	MarkedBy          string             `bson:"marked_by"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	FullName     string             `bson:"full_name"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Disabled     bool               `bson:"disabled"`
}

// NewMongo connects, pings and ensures the unique indexes.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	m := &Mongo{
		client:     client,
		students:   db.Collection("students"),
		attendance: db.Collection("attendance"),
		users:      db.Collection("users"),
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return m, nil
}

// EnsureIndexes creates the unique keys the services rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := m.students.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "roll_number", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := m.attendance.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "student_roll_number", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "branch", Value: 1}, {Key: "year", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}}, Options: unique,
	})
	return err
}

func mongoFilter(f model.Filter, withDate bool) bson.M {
	q := bson.M{}
	if withDate && f.Date != nil {
		q["date"] = *f.Date
	}
	if f.Branch != "" {
		q["branch"] = f.Branch
	}
	if f.Year != 0 {
		q["year"] = f.Year
	}
	return q
}

func findOptions(p model.Page, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	if p.Offset > 0 {
		opts.SetSkip(int64(p.Offset))
	}
	return opts
}

// InsertStudent adds a student unless the roll number is taken.
func (m *Mongo) InsertStudent(ctx context.Context, s model.Student) error {
	_, err := m.students.InsertOne(ctx, studentDoc{
		SNo:        s.SNo,
		RollNumber: s.RollNumber,
		Name:       s.Name,
		Branch:     s.Branch,
		Year:       s.Year,
		Contact:    s.Contact,
	})
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrDuplicate
	}
	return err
}

// FindStudents lists students by branch/year ordered by S.No.
func (m *Mongo) FindStudents(ctx context.Context, f model.Filter, p model.Page) ([]model.Student, error) {
	cur, err := m.students.Find(ctx, mongoFilter(f, false),
		findOptions(p, bson.D{{Key: "s_no", Value: 1}, {Key: "roll_number", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []studentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	res := make([]model.Student, 0, len(docs))
	for _, d := range docs {
		res = append(res, model.Student{
			ID:         d.ID.Hex(),
			SNo:        d.SNo,
			RollNumber: d.RollNumber,
			Name:       d.Name,
			Branch:     d.Branch,
			Year:       d.Year,
			Contact:    d.Contact,
		})
	}
	return res, nil
}

// CountStudents counts students by branch/year.
func (m *Mongo) CountStudents(ctx context.Context, f model.Filter) (int64, error) {
	return m.students.CountDocuments(ctx, mongoFilter(f, false))
}

// UpsertAttendance issues one UpdateOne(upsert) per op in a single BulkWrite.
func (m *Mongo) UpsertAttendance(ctx context.Context, ops []model.Upsert) error {
	models := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"student_roll_number": op.RollNumber, "date": op.Date}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"branch":     op.Branch,
					"year":       op.Year,
					"status":     string(op.Status),
					"marked_by":  op.MarkedBy,
					"updated_at": op.At,
				},
				"$setOnInsert": bson.M{"created_at": op.At},
			}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	_, err := m.attendance.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}

// FindAttendance lists records newest date first.
func (m *Mongo) FindAttendance(ctx context.Context, f model.Filter, p model.Page) ([]model.AttendanceRecord, error) {
	cur, err := m.attendance.Find(ctx, mongoFilter(f, true),
		findOptions(p, bson.D{{Key: "date", Value: -1}, {Key: "student_roll_number", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []attendanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	res := make([]model.AttendanceRecord, 0, len(docs))
	for _, d := range docs {
		res = append(res, model.AttendanceRecord{
			ID:                d.ID.Hex(),
			Date:              d.Date,
			Branch:            d.Branch,
			Year:              d.Year,
			StudentRollNumber: d.StudentRollNumber,
			Status:            model.Status(d.Status),
			MarkedBy:          d.MarkedBy,
			CreatedAt:         d.CreatedAt,
			UpdatedAt:         d.UpdatedAt,
		})
	}
	return res, nil
}

// CountAttendanceByStatus groups matching records by status.
func (m *Mongo) CountAttendanceByStatus(ctx context.Context, f model.Filter) (map[model.Status]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: mongoFilter(f, true)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := m.attendance.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[model.Status]int64, len(rows))
	for _, r := range rows {
		out[model.Status(r.Status)] = r.Count
	}
	return out, nil
}

// InsertUser creates an account unless the username is taken.
func (m *Mongo) InsertUser(ctx context.Context, u model.User) (model.User, error) {
	res, err := m.users.InsertOne(ctx, userDoc{
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Disabled:     u.Disabled,
	})
	if mongo.IsDuplicateKeyError(err) {
		return model.User{}, model.ErrDuplicate
	}
	if err != nil {
		return model.User{}, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}
	return u, nil
}

// FindUserByUsername returns nil when there is no such user.
func (m *Mongo) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var d userDoc
	if err := m.users.FindOne(ctx, bson.M{"username": username}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		PasswordHash: d.PasswordHash,
		Role:         model.Role(d.Role),
		Disabled:     d.Disabled,
	}, nil
}

// HasAdmin reports whether any admin account exists.
func (m *Mongo) HasAdmin(ctx context.Context) (bool, error) {
	n, err := m.users.CountDocuments(ctx, bson.M{"role": string(model.RoleAdmin)}, options.Count().SetLimit(1))
	return n > 0, err
}

// Ping checks connectivity.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
