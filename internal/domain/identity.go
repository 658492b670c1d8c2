package domain

// RepositoryIdentity is the self-description a remote endpoint reports.
type RepositoryIdentity struct {
	Name            string `json:"name" yaml:"name"`
	BaseURL         string `json:"baseURL" yaml:"baseURL"`
	ProtocolVersion string `json:"protocolVersion" yaml:"protocolVersion"`
	AdminEmail      string `json:"adminEmail" yaml:"adminEmail"`
	// RepositoryIdentifier has no fallback; it is absent when the endpoint
	// does not publish an oai-identifier description.
	RepositoryIdentifier Value `json:"-" yaml:"-"`
}

// Identifier returns the repository identifier or an empty string.
func (r RepositoryIdentity) Identifier() string {
	return r.RepositoryIdentifier.Or("")
}
