package grpcnode

import (
	"fmt"
	"net"

	"myejbclient/domain"
	"myejbclient/interfaces"
	"myejbclient/service"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Frame types carried in the "type" field of every message.
const (
	frameInvoke      = "invoke"
	frameSessionOpen = "session_open"
	frameCancel      = "cancel"
	frameResponse    = "response"

	eventClusterTopology   = "cluster_topology"
	eventClusterRemoval    = "cluster_removal"
	eventNodesAdded        = "cluster_nodes_added"
	eventNodesRemoved      = "cluster_nodes_removed"
	eventModuleAvailable   = "module_available"
	eventModuleUnavailable = "module_unavailable"
)

// encodeRequest builds the request frame. Params must be JSON-like values (string, bool, numbers,
// nil, []any, map[string]any); numbers arrive on the node as float64.
//
// Returns: (frame, nil); (nil, error wrapping service.ErrMalformedRequest) when a param cannot be encoded.
func encodeRequest(req domain.InvocationRequest) (*structpb.Struct, error) {
	params, err := structpb.NewList(req.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: params: %v", service.ErrMalformedRequest, err)
	}
	typ := frameInvoke
	if req.SessionOpen {
		typ = frameSessionOpen
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":        structpb.NewStringValue(typ),
		"id":          structpb.NewStringValue(req.ID),
		"bean":        structpb.NewStructValue(encodeBean(req.Bean)),
		"method":      structpb.NewStringValue(req.Method.Name),
		"param_types": structpb.NewListValue(stringList(req.Method.ParamTypes)),
		"affinity":    structpb.NewStringValue(req.Affinity.String()),
		"params":      structpb.NewListValue(params),
		"one_way":     structpb.NewBoolValue(req.OneWay),
	}}, nil
}

// decodeRequest parses a request frame.
//
// Returns: (request, nil); (InvocationRequest{}, error wrapping service.ErrMalformedRequest) on wrong type, missing bean or bad affinity.
func decodeRequest(s *structpb.Struct) (domain.InvocationRequest, error) {
	typ := str(s, "type")
	if typ != frameInvoke && typ != frameSessionOpen {
		return domain.InvocationRequest{}, fmt.Errorf("%w: unexpected frame type %q", service.ErrMalformedRequest, typ)
	}
	bean := decodeBean(s.GetFields()["bean"].GetStructValue())
	if bean.BeanName == "" || bean.Module.ModuleName == "" {
		return domain.InvocationRequest{}, fmt.Errorf("%w: bean %q is incomplete", service.ErrMalformedRequest, bean)
	}
	affinity, err := domain.ParseAffinity(str(s, "affinity"))
	if err != nil {
		return domain.InvocationRequest{}, fmt.Errorf("%w: %w", service.ErrMalformedRequest, err)
	}
	var params []any
	if l := s.GetFields()["params"].GetListValue(); len(l.GetValues()) > 0 {
		params = l.AsSlice()
	}
	return domain.InvocationRequest{
		ID:          str(s, "id"),
		Bean:        bean,
		Method:      domain.MethodLocator{Name: str(s, "method"), ParamTypes: strs(s, "param_types")},
		Affinity:    affinity,
		Params:      params,
		OneWay:      s.GetFields()["one_way"].GetBoolValue(),
		SessionOpen: typ == frameSessionOpen,
	}, nil
}

func cancelFrame(id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type": structpb.NewStringValue(frameCancel),
		"id":   structpb.NewStringValue(id),
	}}
}

// encodeResponse builds the response frame.
//
// Returns: (frame, nil); (nil, error) when Value is not a JSON-like value.
func encodeResponse(resp domain.InvocationResponse) (*structpb.Struct, error) {
	value, err := structpb.NewValue(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	fields := map[string]*structpb.Value{
		"type":          structpb.NewStringValue(frameResponse),
		"id":            structpb.NewStringValue(resp.ID),
		"kind":          structpb.NewStringValue(string(resp.Kind)),
		"value":         value,
		"error_message": structpb.NewStringValue(resp.ErrorMessage),
	}
	if resp.Session != nil {
		fields["session"] = structpb.NewStructValue(encodeSession(*resp.Session))
	}
	return &structpb.Struct{Fields: fields}, nil
}

// decodeResponse parses a response frame; an unparsable session is an error.
func decodeResponse(s *structpb.Struct) (domain.InvocationResponse, error) {
	if typ := str(s, "type"); typ != frameResponse {
		return domain.InvocationResponse{}, fmt.Errorf("unexpected frame type %q", typ)
	}
	resp := domain.InvocationResponse{
		ID:           str(s, "id"),
		Kind:         domain.ResponseKind(str(s, "kind")),
		Value:        s.GetFields()["value"].AsInterface(),
		ErrorMessage: str(s, "error_message"),
	}
	if v, ok := s.GetFields()["session"]; ok {
		session, err := decodeSession(v.GetStructValue())
		if err != nil {
			return domain.InvocationResponse{}, err
		}
		resp.Session = &session
	}
	return resp, nil
}

func encodeSession(session domain.Session) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id":       structpb.NewStringValue(string(session.ID)),
		"bean":     structpb.NewStructValue(encodeBean(session.Bean)),
		"affinity": structpb.NewStringValue(session.Affinity.String()),
	}
	if session.Node != "" {
		fields["node"] = structpb.NewStringValue(session.Node)
	}
	if !session.CreatedAt.IsZero() {
		ts := timestamppb.New(session.CreatedAt)
		fields["created_at"] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"seconds": structpb.NewNumberValue(float64(ts.GetSeconds())),
			"nanos":   structpb.NewNumberValue(float64(ts.GetNanos())),
		}})
	}
	return &structpb.Struct{Fields: fields}
}

func decodeSession(s *structpb.Struct) (domain.Session, error) {
	affinity, err := domain.ParseAffinity(str(s, "affinity"))
	if err != nil {
		return domain.Session{}, fmt.Errorf("session affinity: %w", err)
	}
	if affinity.Kind != domain.AffinitySession {
		return domain.Session{}, fmt.Errorf("session affinity: got %s", affinity)
	}
	session := domain.Session{
		ID:       domain.SessionID(str(s, "id")),
		Bean:     decodeBean(s.GetFields()["bean"].GetStructValue()),
		Affinity: affinity,
		Node:     str(s, "node"),
	}
	if ts := s.GetFields()["created_at"].GetStructValue(); ts != nil {
		session.CreatedAt = (&timestamppb.Timestamp{
			Seconds: int64(num(ts, "seconds")),
			Nanos:   int32(num(ts, "nanos")),
		}).AsTime()
	}
	return session, nil
}

func encodeBean(b domain.BeanIdentifier) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"app":      structpb.NewStringValue(b.Module.AppName),
		"module":   structpb.NewStringValue(b.Module.ModuleName),
		"distinct": structpb.NewStringValue(b.Module.DistinctName),
		"bean":     structpb.NewStringValue(b.BeanName),
	}}
}

func decodeBean(s *structpb.Struct) domain.BeanIdentifier {
	return domain.BeanIdentifier{Module: decodeModule(s), BeanName: str(s, "bean")}
}

func encodeModule(m domain.ModuleIdentifier) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"app":      structpb.NewStringValue(m.AppName),
		"module":   structpb.NewStringValue(m.ModuleName),
		"distinct": structpb.NewStringValue(m.DistinctName),
	}})
}

func decodeModule(s *structpb.Struct) domain.ModuleIdentifier {
	return domain.ModuleIdentifier{AppName: str(s, "app"), ModuleName: str(s, "module"), DistinctName: str(s, "distinct")}
}

func encodeNode(n domain.NodeInfo) *structpb.Value {
	mappings := make([]*structpb.Value, 0, len(n.Mappings))
	for _, m := range n.Mappings {
		fields := map[string]*structpb.Value{
			"dest_host":    structpb.NewStringValue(m.DestHost),
			"dest_port":    structpb.NewNumberValue(float64(m.DestPort)),
			"netmask_bits": structpb.NewNumberValue(float64(m.NetmaskBits)),
		}
		if m.SourceIP != nil {
			fields["source_ip"] = structpb.NewStringValue(m.SourceIP.String())
		}
		mappings = append(mappings, structpb.NewStructValue(&structpb.Struct{Fields: fields}))
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"name":     structpb.NewStringValue(n.Name),
		"mappings": structpb.NewListValue(&structpb.ListValue{Values: mappings}),
	}})
}

func decodeNode(s *structpb.Struct) domain.NodeInfo {
	n := domain.NodeInfo{Name: str(s, "name")}
	for _, v := range s.GetFields()["mappings"].GetListValue().GetValues() {
		ms := v.GetStructValue()
		m := domain.MappingInfo{
			DestHost:    str(ms, "dest_host"),
			DestPort:    int(num(ms, "dest_port")),
			NetmaskBits: int(num(ms, "netmask_bits")),
		}
		if ip := str(ms, "source_ip"); ip != "" {
			m.SourceIP = net.ParseIP(ip)
		}
		n.Mappings = append(n.Mappings, m)
	}
	return n
}

func encodeCluster(c domain.ClusterInfo) *structpb.Value {
	nodes := make([]*structpb.Value, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		nodes = append(nodes, encodeNode(n))
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"name":  structpb.NewStringValue(c.Name),
		"nodes": structpb.NewListValue(&structpb.ListValue{Values: nodes}),
	}})
}

func decodeCluster(s *structpb.Struct) domain.ClusterInfo {
	c := domain.ClusterInfo{Name: str(s, "name")}
	for _, v := range s.GetFields()["nodes"].GetListValue().GetValues() {
		c.Nodes = append(c.Nodes, decodeNode(v.GetStructValue()))
	}
	return c
}

func event(typ string, fields map[string]*structpb.Value) *structpb.Struct {
	fields["type"] = structpb.NewStringValue(typ)
	return &structpb.Struct{Fields: fields}
}

func clustersEvent(clusters []domain.ClusterInfo) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(clusters))
	for _, c := range clusters {
		values = append(values, encodeCluster(c))
	}
	return event(eventClusterTopology, map[string]*structpb.Value{
		"clusters": structpb.NewListValue(&structpb.ListValue{Values: values}),
	})
}

func removalEvent(names []string) *structpb.Struct {
	return event(eventClusterRemoval, map[string]*structpb.Value{"names": structpb.NewListValue(stringList(names))})
}

func nodesAddedEvent(delta domain.ClusterInfo) *structpb.Struct {
	return event(eventNodesAdded, map[string]*structpb.Value{"cluster": encodeCluster(delta)})
}

func nodesRemovedEvent(removals []domain.ClusterRemovalInfo) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(removals))
	for _, r := range removals {
		values = append(values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":  structpb.NewStringValue(r.Name),
			"nodes": structpb.NewListValue(stringList(r.NodeNames)),
		}}))
	}
	return event(eventNodesRemoved, map[string]*structpb.Value{
		"removals": structpb.NewListValue(&structpb.ListValue{Values: values}),
	})
}

func moduleEvent(typ, node string, modules []domain.ModuleIdentifier) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(modules))
	for _, m := range modules {
		values = append(values, encodeModule(m))
	}
	return event(typ, map[string]*structpb.Value{
		"node":    structpb.NewStringValue(node),
		"modules": structpb.NewListValue(&structpb.ListValue{Values: values}),
	})
}

// applyEvent decodes a watch frame and delivers it to the matching listener.
//
// Returns: error for an unknown event type; the frame is then ignored by the caller.
func applyEvent(s *structpb.Struct, topology interfaces.TopologyListener, modules interfaces.ModuleAvailabilityListener) error {
	f := s.GetFields()
	switch typ := str(s, "type"); typ {
	case eventClusterTopology:
		var clusters []domain.ClusterInfo
		for _, v := range f["clusters"].GetListValue().GetValues() {
			clusters = append(clusters, decodeCluster(v.GetStructValue()))
		}
		topology.ClusterTopology(clusters)
	case eventClusterRemoval:
		topology.ClusterRemoval(strs(s, "names"))
	case eventNodesAdded:
		topology.ClusterNewNodesAdded(decodeCluster(f["cluster"].GetStructValue()))
	case eventNodesRemoved:
		var removals []domain.ClusterRemovalInfo
		for _, v := range f["removals"].GetListValue().GetValues() {
			rs := v.GetStructValue()
			removals = append(removals, domain.ClusterRemovalInfo{Name: str(rs, "name"), NodeNames: strs(rs, "nodes")})
		}
		topology.ClusterNodesRemoved(removals)
	case eventModuleAvailable, eventModuleUnavailable:
		var ms []domain.ModuleIdentifier
		for _, v := range f["modules"].GetListValue().GetValues() {
			ms = append(ms, decodeModule(v.GetStructValue()))
		}
		if typ == eventModuleAvailable {
			modules.ModuleAvailable(str(s, "node"), ms)
		} else {
			modules.ModuleUnavailable(str(s, "node"), ms)
		}
	default:
		return fmt.Errorf("unknown watch event %q", typ)
	}
	return nil
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func num(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

// strs returns a string list field; an empty list is nil.
func strs(s *structpb.Struct, key string) []string {
	values := s.GetFields()[key].GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStringValue())
	}
	return out
}

func stringList(items []string) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(items))
	for _, s := range items {
		values = append(values, structpb.NewStringValue(s))
	}
	return &structpb.ListValue{Values: values}
}
