package domain

// Connection parameter keys shared by connectors and the CLI.
const (
	ParamDriver          = "driver"
	ParamDSN             = "dsn"
	ParamTable           = "table"
	ParamIDColumn        = "id_column"
	ParamURI             = "uri"
	ParamDatabase        = "database"
	ParamCollection      = "collection"
	ParamBucket          = "bucket"
	ParamPrefix          = "prefix"
	ParamFolderID        = "folder_id"
	ParamFolderPath      = "folder_path"
	ParamToken           = "token"
	ParamCredentialsJSON = "credentials_json"
	ParamBootstrapped    = "bootstrapped"
	ParamBatchSize       = "batch_size"
)

// KindDescriptor describes a supported source kind.
type KindDescriptor struct {
	// Kind is the identifier stored on connections.
	Kind SourceKind
	// Name is the human-readable display name.
	Name string
	// Description provides a brief explanation of the source.
	Description string
	// ConfigKeys lists the parameters the connector reads.
	ConfigKeys []ConfigKey
}

// ConfigKey describes a configuration parameter for a source kind.
type ConfigKey struct {
	// Key is the parameter name.
	Key string
	// Label is the human-readable label.
	Label string
	// Description explains what this field is for.
	Description string
	// Default is the value used when the parameter is absent.
	Default string
	// Required indicates whether this field must be provided.
	Required bool
	// Secret indicates whether the value should be masked on output.
	Secret bool
}

var kindDescriptors = []KindDescriptor{
	{
		Kind:        KindSQL,
		Name:        "SQL table",
		Description: "Rows of a relational table, ordered by primary key",
		ConfigKeys: []ConfigKey{
			{Key: ParamDriver, Label: "Driver", Description: "database/sql driver, only sqlite is supported", Default: "sqlite"},
			{Key: ParamDSN, Label: "DSN", Description: "Data source name", Required: true, Secret: true},
			{Key: ParamTable, Label: "Table", Description: "Table to read", Required: true},
			{Key: ParamIDColumn, Label: "ID column", Description: "Ordered unique key column", Default: "id"},
		},
	},
	{
		Kind:        KindMongoDB,
		Name:        "MongoDB",
		Description: "A collection, or a GridFS bucket when bucket is set",
		ConfigKeys: []ConfigKey{
			{Key: ParamURI, Label: "URI", Description: "Connection string", Required: true, Secret: true},
			{Key: ParamDatabase, Label: "Database", Required: true},
			{Key: ParamCollection, Label: "Collection", Description: "Collection to read"},
			{Key: ParamBucket, Label: "GridFS bucket", Description: "Read files from this GridFS bucket instead"},
		},
	},
	{
		Kind:        KindGoogleDrive,
		Name:        "Google Drive",
		Description: "Files below a Drive folder",
		ConfigKeys: []ConfigKey{
			{Key: ParamFolderID, Label: "Folder ID", Description: "Root folder to walk", Required: true},
			{Key: ParamCredentialsJSON, Label: "Service account JSON", Secret: true},
			{Key: ParamToken, Label: "Access token", Secret: true},
		},
	},
	{
		Kind:        KindDropbox,
		Name:        "Dropbox",
		Description: "Files below a Dropbox folder",
		ConfigKeys: []ConfigKey{
			{Key: ParamToken, Label: "Access token", Required: true, Secret: true},
			{Key: ParamFolderPath, Label: "Folder path", Description: "Root folder, empty for the whole account"},
		},
	},
	{
		Kind:        KindGCS,
		Name:        "Google Cloud Storage",
		Description: "Objects of a bucket, optionally below a prefix",
		ConfigKeys: []ConfigKey{
			{Key: ParamBucket, Label: "Bucket", Required: true},
			{Key: ParamPrefix, Label: "Prefix"},
			{Key: ParamCredentialsJSON, Label: "Service account JSON", Secret: true},
		},
	},
}

// KindDescriptors returns descriptors for every supported kind.
func KindDescriptors() []KindDescriptor {
	out := make([]KindDescriptor, len(kindDescriptors))
	copy(out, kindDescriptors)
	return out
}

// LookupKind returns the descriptor for k.
func LookupKind(k SourceKind) (KindDescriptor, bool) {
	for _, d := range kindDescriptors {
		if d.Kind == k {
			return d, true
		}
	}
	return KindDescriptor{}, false
}

// IsSecretParam reports whether key holds a credential for kind k.
func IsSecretParam(k SourceKind, key string) bool {
	d, ok := LookupKind(k)
	if !ok {
		return false
	}
	for _, ck := range d.ConfigKeys {
		if ck.Key == key {
			return ck.Secret
		}
	}
	return false
}
