package repository

import (
	"context"
	"voxllm/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CaseRepo archives finished cases in MongoDB
type CaseRepo interface {
	SaveSnapshot(ctx context.Context, session *model.Session) error
	GetSnapshot(ctx context.Context, sessionID string) (*model.Session, error)
	SaveDocument(ctx context.Context, doc *model.CaseDocument) error
	GetDocument(ctx context.Context, sessionID string) (*model.CaseDocument, error)
}

type caseRepo struct {
	snapshots *mongo.Collection
	documents *mongo.Collection
}

// NewCaseRepo creates a new case archive
func NewCaseRepo(db *mongo.Database) CaseRepo {
	return &caseRepo{
		snapshots: db.Collection("case_snapshots"),
		documents: db.Collection("case_documents"),
	}
}

func (r *caseRepo) SaveSnapshot(ctx context.Context, session *model.Session) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.snapshots.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, opts)
	return err
}

func (r *caseRepo) GetSnapshot(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	err := r.snapshots.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *caseRepo) SaveDocument(ctx context.Context, doc *model.CaseDocument) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.documents.ReplaceOne(ctx, bson.M{"sessionId": doc.SessionID}, doc, opts)
	return err
}

func (r *caseRepo) GetDocument(ctx context.Context, sessionID string) (*model.CaseDocument, error) {
	var doc model.CaseDocument
	err := r.documents.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// NewNoopCaseRepo returns an archive that discards writes. Used when no
// MongoDB is configured.
func NewNoopCaseRepo() CaseRepo {
	return noopCaseRepo{}
}

type noopCaseRepo struct{}

func (noopCaseRepo) SaveSnapshot(context.Context, *model.Session) error { return nil }

func (noopCaseRepo) GetSnapshot(context.Context, string) (*model.Session, error) { return nil, nil }

func (noopCaseRepo) SaveDocument(context.Context, *model.CaseDocument) error { return nil }

func (noopCaseRepo) GetDocument(context.Context, string) (*model.CaseDocument, error) {
	return nil, nil
}
