package alternator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
	"github.com/oshokin/radio-alternator/internal/logger"
	core "github.com/oshokin/radio-alternator/internal/service/alternator"
)

// Keys of the request and status structs.
const (
	FieldRunID          = "run_id"
	FieldStartedAt      = "started_at"
	FieldRunning        = "running"
	FieldPaused         = "paused"
	FieldStopRequested  = "stop_requested"
	FieldPhase          = "phase"
	FieldCycles         = "cycles"
	FieldBurstDuration  = "burst_duration"
	FieldScanDuration   = "scan_duration"
	FieldAlreadyRunning = "already_running"
)

// errNotAString is returned when a duration field carries a non-string value.
var errNotAString = errors.New("value must be a duration string")

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Start(ctx context.Context, cfg *domain.Config) error
	Stop(ctx context.Context)
	TogglePause(ctx context.Context) bool
	Status() *domain.Status
}

// Server implements the AlternatorService gRPC API.
type Server struct {
	// service provides the scheduler operations.
	service Service
}

// Compile-time check that Server satisfies the generated-style interface.
var _ AlternatorServiceServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Start begins a run. Missing duration fields keep the current settings.
// A run that already exists is reported through already_running, not as an error,
// and the request is not validated in that case since it would be ignored.
func (s *Server) Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	current := s.service.Status()
	if current.Running {
		return StatusToStruct(current, true), nil
	}

	cfg, err := configFromRequest(req, current.Config)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	err = s.service.Start(ctx, cfg)

	switch {
	case err == nil:
		return StatusToStruct(s.service.Status(), false), nil
	case errors.Is(err, core.ErrAlreadyRunning):
		return StatusToStruct(s.service.Status(), true), nil
	case errors.Is(err, domain.ErrInvalidDuration):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	default:
		logger.ErrorKV(ctx, "Start failed", "error", err)

		return nil, status.Error(codes.Internal, "unable to start alternator")
	}
}

// Stop requests termination of the current run.
func (s *Server) Stop(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.service.Stop(ctx)

	return StatusToStruct(s.service.Status(), false), nil
}

// TogglePause flips the pause request.
func (s *Server) TogglePause(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.service.TogglePause(ctx)

	return StatusToStruct(s.service.Status(), false), nil
}

// GetStatus returns the current status.
func (s *Server) GetStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return StatusToStruct(s.service.Status(), false), nil
}

// StartRequest builds a Start request; zero durations are left out.
func StartRequest(cfg domain.Config) *structpb.Struct {
	fields := make(map[string]*structpb.Value, 2)

	if cfg.BurstDuration != 0 {
		fields[FieldBurstDuration] = structpb.NewStringValue(cfg.BurstDuration.String())
	}

	if cfg.ScanDuration != 0 {
		fields[FieldScanDuration] = structpb.NewStringValue(cfg.ScanDuration.String())
	}

	return &structpb.Struct{Fields: fields}
}

// StatusToStruct converts a domain status into its wire form.
func StatusToStruct(st *domain.Status, alreadyRunning bool) *structpb.Struct {
	if st == nil {
		st = new(domain.Status)
	}

	fields := map[string]*structpb.Value{
		FieldRunID:          structpb.NewStringValue(st.RunID),
		FieldRunning:        structpb.NewBoolValue(st.Running),
		FieldPaused:         structpb.NewBoolValue(st.Paused),
		FieldStopRequested:  structpb.NewBoolValue(st.StopRequested),
		FieldPhase:          structpb.NewStringValue(st.Phase.String()),
		FieldCycles:         structpb.NewNumberValue(float64(st.Cycles)),
		FieldBurstDuration:  structpb.NewStringValue(st.Config.BurstDuration.String()),
		FieldScanDuration:   structpb.NewStringValue(st.Config.ScanDuration.String()),
		FieldAlreadyRunning: structpb.NewBoolValue(alreadyRunning),
	}

	if !st.StartedAt.IsZero() {
		fields[FieldStartedAt] = structpb.NewStringValue(st.StartedAt.UTC().Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// StatusFromStruct converts the wire form back into a domain status.
// Unknown or malformed fields are left at their zero values.
func StatusFromStruct(s *structpb.Struct) (st *domain.Status, alreadyRunning bool) {
	st = new(domain.Status)

	fields := s.GetFields()
	if fields == nil {
		return st, false
	}

	st.RunID = fields[FieldRunID].GetStringValue()
	st.Running = fields[FieldRunning].GetBoolValue()
	st.Paused = fields[FieldPaused].GetBoolValue()
	st.StopRequested = fields[FieldStopRequested].GetBoolValue()
	st.Cycles = uint64(fields[FieldCycles].GetNumberValue())
	st.Phase, _ = domain.ParsePhase(fields[FieldPhase].GetStringValue())
	st.Config.BurstDuration, _ = time.ParseDuration(fields[FieldBurstDuration].GetStringValue())
	st.Config.ScanDuration, _ = time.ParseDuration(fields[FieldScanDuration].GetStringValue())
	st.StartedAt, _ = time.Parse(time.RFC3339Nano, fields[FieldStartedAt].GetStringValue())

	return st, fields[FieldAlreadyRunning].GetBoolValue()
}

// configFromRequest overlays the request durations on current.
// It returns nil when the request carries no durations.
func configFromRequest(req *structpb.Struct, current domain.Config) (*domain.Config, error) {
	fields := req.GetFields()
	if len(fields) == 0 {
		return nil, nil //nolint:nilnil // No overrides means "keep current settings".
	}

	cfg := current

	var err error
	if cfg.BurstDuration, err = durationField(fields, FieldBurstDuration, current.BurstDuration); err != nil {
		return nil, err
	}

	if cfg.ScanDuration, err = durationField(fields, FieldScanDuration, current.ScanDuration); err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// durationField parses one optional duration field, returning fallback when absent.
func durationField(fields map[string]*structpb.Value, key string, fallback time.Duration) (time.Duration, error) {
	value, found := fields[key]
	if !found {
		return fallback, nil
	}

	raw, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, errNotAString)
	}

	d, err := time.ParseDuration(raw.StringValue)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return d, nil
}
