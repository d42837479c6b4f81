package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/observability"
)

// MongoStore is a registry backend for server deployments where several
// processes share one store. One collection per record type; the facts
// payloads use the bson tags from pkg/facts.
type MongoStore struct {
	client    *mongo.Client
	projects  *mongo.Collection
	files     *mongo.Collection
	fileFacts *mongo.Collection
	workflows *mongo.Collection
}

// fileFactsDoc is the stored shape of a file's parsed facts.
type fileFactsDoc struct {
	FileID   string              `bson:"_id"`
	Content  string              `bson:"content"`
	Elements []facts.CodeElement `bson:"elements"`
}

// workflowDoc is the stored shape of a workflow trace.
type workflowDoc struct {
	ProjectID string         `bson:"project_id"`
	Name      string         `bson:"name"`
	Workflow  facts.Workflow `bson:"workflow"`
}

// NewMongoStore connects to MongoDB and uses the given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot reach mongodb")
	}

	db := client.Database(database)
	return &MongoStore{
		client:    client,
		projects:  db.Collection("projects"),
		files:     db.Collection("files"),
		fileFacts: db.Collection("file_facts"),
		workflows: db.Collection("workflows"),
	}, nil
}

// observe reports an operation to the store hooks.
func (s *MongoStore) observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnQuery(ctx, "mongo", op, time.Since(start), err)
}

// CreateProject registers a project. Names are unique; a missing ID is
// assigned. CreatedAt/UpdatedAt are set if zero.
func (s *MongoStore) CreateProject(ctx context.Context, p *Project) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "CreateProject", start, err) }()

	n, err := s.projects.CountDocuments(ctx, bson.M{"name": p.Name})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot check project name: %s", p.Name)
	}
	if n > 0 {
		return apperrors.New(apperrors.ErrCodeConflict, "project already exists: %s", p.Name)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	if _, err = s.projects.InsertOne(ctx, p); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot create project: %s", p.Name)
	}
	return nil
}

// ProjectByName looks up a project by its unique name.
func (s *MongoStore) ProjectByName(ctx context.Context, name string) (p *Project, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ProjectByName", start, err) }()

	p = &Project{}
	err = s.projects.FindOne(ctx, bson.M{"name": name}).Decode(p)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", name)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load project: %s", name)
	}
	return p, nil
}

// ListProjects returns all projects sorted by name.
func (s *MongoStore) ListProjects(ctx context.Context) (out []Project, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ListProjects", start, err) }()

	cur, err := s.projects.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list projects")
	}
	out = []Project{}
	if err = cur.All(ctx, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot decode projects")
	}
	return out, nil
}

// MarkParsed updates the parsed flag on a project.
func (s *MongoStore) MarkParsed(ctx context.Context, projectID string, parsed bool) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "MarkParsed", start, err) }()

	res, err := s.projects.UpdateOne(ctx, bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"parsed": parsed, "updated_at": time.Now().UTC()}})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot update project: %s", projectID)
	}
	if res.MatchedCount == 0 {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	return nil
}

// DeleteProject removes a project with its files, facts, and workflows.
func (s *MongoStore) DeleteProject(ctx context.Context, projectID string) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "DeleteProject", start, err) }()

	cur, err := s.files.Find(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list files: %s", projectID)
	}
	var fs []File
	if err = cur.All(ctx, &fs); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot decode files: %s", projectID)
	}
	ids := make([]string, 0, len(fs))
	for _, f := range fs {
		ids = append(ids, f.ID)
	}

	if len(ids) > 0 {
		if _, err = s.fileFacts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete file facts: %s", projectID)
		}
	}
	if _, err = s.files.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete files: %s", projectID)
	}
	if _, err = s.workflows.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete workflows: %s", projectID)
	}

	res, err := s.projects.DeleteOne(ctx, bson.M{"_id": projectID})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete project: %s", projectID)
	}
	if res.DeletedCount == 0 {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	return nil
}

// UpsertFile inserts or replaces a file record.
func (s *MongoStore) UpsertFile(ctx context.Context, f *File) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "UpsertFile", start, err) }()

	_, err = s.files.ReplaceOne(ctx, bson.M{"_id": f.ID}, f, options.Replace().SetUpsert(true))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot upsert file: %s", f.ID)
	}
	return nil
}

// ListFiles returns the files of a project sorted by path.
func (s *MongoStore) ListFiles(ctx context.Context, projectID string) (out []File, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ListFiles", start, err) }()

	cur, err := s.files.Find(ctx, bson.M{"project_id": projectID},
		options.Find().SetSort(bson.D{{Key: "path", Value: 1}}))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list files: %s", projectID)
	}
	out = []File{}
	if err = cur.All(ctx, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot decode files")
	}
	return out, nil
}

// FileByID looks up a file record.
func (s *MongoStore) FileByID(ctx context.Context, fileID string) (f *File, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "FileByID", start, err) }()

	f = &File{}
	err = s.files.FindOne(ctx, bson.M{"_id": fileID}).Decode(f)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound, "file not found: %s", fileID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load file: %s", fileID)
	}
	return f, nil
}

// SaveElements stores the parsed content and elements for a file.
func (s *MongoStore) SaveElements(ctx context.Context, fileID string, content string, els []facts.CodeElement) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "SaveElements", start, err) }()

	if err = facts.ValidateElements(els); err != nil {
		return err
	}
	doc := fileFactsDoc{FileID: fileID, Content: content, Elements: els}
	_, err = s.fileFacts.ReplaceOne(ctx, bson.M{"_id": fileID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot save elements: %s", fileID)
	}
	return nil
}

// FileDetails returns the stored content and elements for a file.
func (s *MongoStore) FileDetails(ctx context.Context, fileID string) (fd *facts.FileDetails, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "FileDetails", start, err) }()

	var doc fileFactsDoc
	err = s.fileFacts.FindOne(ctx, bson.M{"_id": fileID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound, "no parsed facts for file: %s", fileID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load facts: %s", fileID)
	}
	return &facts.FileDetails{Content: doc.Content, Elements: doc.Elements}, nil
}

// SaveWorkflows replaces the stored workflows of a project.
func (s *MongoStore) SaveWorkflows(ctx context.Context, projectID string, ws []facts.Workflow) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "SaveWorkflows", start, err) }()

	if _, err = s.workflows.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot clear workflows: %s", projectID)
	}
	if len(ws) == 0 {
		return nil
	}

	docs := make([]any, 0, len(ws))
	for _, w := range ws {
		docs = append(docs, workflowDoc{ProjectID: projectID, Name: w.Name, Workflow: w})
	}
	if _, err = s.workflows.InsertMany(ctx, docs); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot save workflows: %s", projectID)
	}
	return nil
}

// ListWorkflows returns the stored workflows of a project sorted by name.
func (s *MongoStore) ListWorkflows(ctx context.Context, projectID string) (out []facts.Workflow, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ListWorkflows", start, err) }()

	cur, err := s.workflows.Find(ctx, bson.M{"project_id": projectID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list workflows: %s", projectID)
	}
	var docs []workflowDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot decode workflows")
	}
	out = make([]facts.Workflow, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Workflow)
	}
	return out, nil
}

// ParsingStatus reports per-file element coverage for a project.
func (s *MongoStore) ParsingStatus(ctx context.Context, projectID string) (st *Status, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ParsingStatus", start, err) }()

	var p Project
	err = s.projects.FindOne(ctx, bson.M{"_id": projectID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load project: %s", projectID)
	}

	files, err := s.ListFiles(ctx, projectID)
	if err != nil {
		return nil, err
	}

	st = &Status{ProjectID: projectID, Parsed: p.Parsed, Files: []FileStatus{}}
	for _, f := range files {
		var els []facts.CodeElement
		if fd, err := s.FileDetails(ctx, f.ID); err == nil {
			els = fd.Elements
		} else if !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
			return nil, err
		}
		st.Files = append(st.Files, fileStatus(f, els))
	}
	return st, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
