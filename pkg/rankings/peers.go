package rankings

// Peer group file layout. Peer sets ship as a small companion table mapping
// a group name to its member institutions.
const (
	// PeerFileName is the blob name the loader reads peer groups from.
	PeerFileName = "peers.csv"
	// ColumnPeerType is the peer group name column.
	ColumnPeerType = "PEER_TYPE"
	// ColumnPeerName is the peer member institution column.
	ColumnPeerName = "PEER_NAME"
)

// PeerGroup names a curated set of institutions compared as a cohort, such
// as aspirational or regional peers.
type PeerGroup struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Clone returns a deep copy of the peer group.
func (g PeerGroup) Clone() PeerGroup {
	out := g
	out.Members = append([]string(nil), g.Members...)
	return out
}
