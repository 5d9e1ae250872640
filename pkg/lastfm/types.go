package lastfm

// Method selects which kind of top chart is requested.
type Method string

const (
	MethodAlbum  Method = "album"
	MethodArtist Method = "artist"
	MethodTrack  Method = "track"
)

// ParseMethod converts a query value into a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "album":
		return MethodAlbum, nil
	case "artist":
		return MethodArtist, nil
	case "track":
		return MethodTrack, nil
	default:
		return "", ErrInvalidMethod
	}
}

// apiMethod returns the Last.fm API method name for a chart method.
func (m Method) apiMethod() (string, error) {
	switch m {
	case MethodAlbum:
		return "user.gettopalbums", nil
	case MethodArtist:
		return "user.gettopartists", nil
	case MethodTrack:
		return "user.gettoptracks", nil
	default:
		return "", ErrInvalidMethod
	}
}

// Period is the time range a chart covers.
type Period string

const (
	PeriodSevenDays    Period = "7day"
	PeriodOneMonth     Period = "1month"
	PeriodThreeMonths  Period = "3month"
	PeriodSixMonths    Period = "6month"
	PeriodTwelveMonths Period = "12month"
	PeriodOverall      Period = "overall"
)

// ParsePeriod converts a query value into a Period.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "7day":
		return PeriodSevenDays, nil
	case "1month":
		return PeriodOneMonth, nil
	case "3month":
		return PeriodThreeMonths, nil
	case "6month":
		return PeriodSixMonths, nil
	case "12month":
		return PeriodTwelveMonths, nil
	case "overall":
		return PeriodOverall, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Image sizes returned by the API.
const (
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"
	SizeExtraLarge = "extralarge"
	SizeMega       = "mega"
)

// Image is one artwork variant. An empty URL means Last.fm has no
// artwork of that size.
type Image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// Images is the ordered list of variants attached to an album, artist
// or track.
type Images []Image

// Lookup returns the URL of the variant with the given size. ok is
// false when no variant of that size is present at all.
func (imgs Images) Lookup(size string) (url string, ok bool) {
	for _, img := range imgs {
		if img.Size == size {
			return img.URL, true
		}
	}
	return "", false
}

// ArtistRef is the artist attached to an album or track.
type ArtistRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	MBID string `json:"mbid"`
}

// rankAttr carries the chart position.
type rankAttr struct {
	Rank string `json:"rank"`
}

// Album is one entry of a user's top albums chart.
type Album struct {
	Name      string    `json:"name"`
	Artist    ArtistRef `json:"artist"`
	Playcount string    `json:"playcount"`
	URL       string    `json:"url"`
	MBID      string    `json:"mbid"`
	Images    Images    `json:"image"`
	Attr      rankAttr  `json:"@attr"`
}

// Artist is one entry of a user's top artists chart.
type Artist struct {
	Name      string   `json:"name"`
	Playcount string   `json:"playcount"`
	URL       string   `json:"url"`
	MBID      string   `json:"mbid"`
	Images    Images   `json:"image"`
	Attr      rankAttr `json:"@attr"`
}

// Track is one entry of a user's top tracks chart.
type Track struct {
	Name      string    `json:"name"`
	Artist    ArtistRef `json:"artist"`
	Playcount string    `json:"playcount"`
	URL       string    `json:"url"`
	MBID      string    `json:"mbid"`
	Images    Images    `json:"image"`
	Attr      rankAttr  `json:"@attr"`
}

// Rank returns the chart position as reported by Last.fm.
func (a Album) Rank() string { return a.Attr.Rank }

// Rank returns the chart position as reported by Last.fm.
func (a Artist) Rank() string { return a.Attr.Rank }

// Rank returns the chart position as reported by Last.fm.
func (t Track) Rank() string { return t.Attr.Rank }

type topAlbumsResponse struct {
	TopAlbums *struct {
		Albums []Album `json:"album"`
	} `json:"topalbums"`
}

type topArtistsResponse struct {
	TopArtists *struct {
		Artists []Artist `json:"artist"`
	} `json:"topartists"`
}

type topTracksResponse struct {
	TopTracks *struct {
		Tracks []Track `json:"track"`
	} `json:"toptracks"`
}
