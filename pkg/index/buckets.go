package index

// Bucket names for the sub-stores §3 and §4.2 enumerate. Each index
// opens exactly one kv.Store (one bbolt file) containing all of these.
var (
	bucketMeta     = []byte("meta")     // single IndexMeta record
	bucketSettings = []byte("settings") // single Settings record
	bucketDocs     = []byte("documents")     // internalDocId -> obkv document
	bucketExtToInt = []byte("ext_to_int")    // externalId -> internalDocId
	bucketIntToExt = []byte("int_to_ext")    // internalDocId -> externalId

	bucketWordDocids               = []byte("word_docids")
	bucketWordPrefixDocids         = []byte("word_prefix_docids")
	bucketWordPairProximityDocids  = []byte("word_pair_proximity_docids")
	bucketWordPrefixPairProximity  = []byte("word_prefix_pair_proximity_docids")
	bucketWordPositionDocids       = []byte("word_position_docids")
	bucketFieldIDWordDocids        = []byte("field_id_word_docids")
	bucketFacetStringDocids        = []byte("facet_string_docids")
	bucketFacetNumberDocids        = []byte("facet_number_docids")

	bucketFST = []byte("fst") // single serialized FST blob, key "dict"
)

var allBuckets = [][]byte{
	bucketMeta, bucketSettings, bucketDocs, bucketExtToInt, bucketIntToExt,
	bucketWordDocids, bucketWordPrefixDocids, bucketWordPairProximityDocids,
	bucketWordPrefixPairProximity, bucketWordPositionDocids,
	bucketFieldIDWordDocids, bucketFacetStringDocids, bucketFacetNumberDocids,
	bucketFST,
}

var fstKey = []byte("dict")
var metaKey = []byte("meta")
var settingsKey = []byte("settings")
