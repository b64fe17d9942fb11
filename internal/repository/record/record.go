package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// DefaultFilename is the record file name inside the install directory.
const DefaultFilename = "dgfx-setup-record.json"

var (
	// ErrNotFound is returned when the record file does not exist yet.
	ErrNotFound = errors.New("record not found")

	errRecordIsNil    = errors.New("record is not set")
	errMalformedField = errors.New("malformed record field")
)

// Record describes one setup run.
type Record struct {
	// ID identifies the run.
	ID string
	// Mode is the packaging mode name.
	Mode string
	// Arguments are the invocation arguments.
	Arguments []string
	// InstallDir is the staging directory.
	InstallDir string
	// Files are the staged paths.
	Files []string
	// ToolVersion is the driver version.
	ToolVersion string
	// CreatedAt is when the run finished staging.
	CreatedAt time.Time
}

// New returns a record with a fresh ID and the current time.
func New(mode string, args []string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Mode:      mode,
		Arguments: append([]string(nil), args...),
		CreatedAt: time.Now().UTC(),
	}
}

// FileRepository persists a record as JSON at a fixed path.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the record from disk.
func (r *FileRepository) Load() (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read record file: %w", err)
	}

	var protoRecord structpb.Struct
	if err = protojson.Unmarshal(contents, &protoRecord); err != nil {
		return nil, fmt.Errorf("decode record file: %w", err)
	}

	return fromProto(&protoRecord)
}

// Save writes the record to disk.
func (r *FileRepository) Save(rec *Record) error {
	if rec == nil {
		return errRecordIsNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	protoRecord, err := toProto(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(protoRecord)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if err = os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}

	return nil
}

// toProto converts the record into a structpb.Struct.
func toProto(rec *Record) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":           rec.ID,
		"mode":         rec.Mode,
		"arguments":    toList(rec.Arguments),
		"install_dir":  rec.InstallDir,
		"files":        toList(rec.Files),
		"tool_version": rec.ToolVersion,
	}

	if !rec.CreatedAt.IsZero() {
		ts := timestamppb.New(rec.CreatedAt)
		if err := ts.CheckValid(); err != nil {
			return nil, err
		}

		fields["created_at"] = map[string]any{
			"seconds": float64(ts.GetSeconds()),
			"nanos":   float64(ts.GetNanos()),
		}
	}

	return structpb.NewStruct(fields)
}

// fromProto converts a structpb.Struct back into a record.
func fromProto(protoRecord *structpb.Struct) (*Record, error) {
	fields := protoRecord.GetFields()
	rec := &Record{
		ID:          fields["id"].GetStringValue(),
		Mode:        fields["mode"].GetStringValue(),
		Arguments:   fromList(fields["arguments"]),
		InstallDir:  fields["install_dir"].GetStringValue(),
		Files:       fromList(fields["files"]),
		ToolVersion: fields["tool_version"].GetStringValue(),
	}

	if created := fields["created_at"].GetStructValue(); created != nil {
		ts := &timestamppb.Timestamp{
			Seconds: int64(created.GetFields()["seconds"].GetNumberValue()),
			Nanos:   int32(created.GetFields()["nanos"].GetNumberValue()),
		}

		if err := ts.CheckValid(); err != nil {
			return nil, fmt.Errorf("%w: created_at: %w", errMalformedField, err)
		}

		rec.CreatedAt = ts.AsTime()
	}

	return rec, nil
}

func toList(values []string) []any {
	list := make([]any, 0, len(values))
	for _, v := range values {
		list = append(list, v)
	}

	return list
}

func fromList(value *structpb.Value) []string {
	items := value.GetListValue().GetValues()
	out := make([]string, 0, len(items))

	for _, item := range items {
		out = append(out, item.GetStringValue())
	}

	return out
}
