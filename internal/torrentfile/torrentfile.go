package torrentfile

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/GeminiZA/torrentmatch/internal/bencode"
)

const HashLength = sha1.Size

var (
	ErrNoInfo        = errors.New("no info")
	ErrNoName        = errors.New("no name")
	ErrNoPieceLength = errors.New("no piece length")
	ErrNoPieces      = errors.New("no pieces")
	ErrNoFiles       = errors.New("no files or length")
)

type FileInfo struct {
	Path   []string
	Length int64
	Attr   string
}

// IsPadding reports whether the file is a BEP 47 padding file.
func (fi FileInfo) IsPadding() bool {
	return strings.Contains(fi.Attr, "p")
}

type TorrentInfo struct {
	Name        string
	PieceLength int64
	Pieces      [][]byte
	Private     bool
	Length      int64
	Files       []FileInfo
	MultiFile   bool
}

type TorrentFile struct {
	InfoHash     []byte
	Announce     string
	AnnounceList [][]string
	CreationDate int64
	Comment      string
	CreatedBy    string
	Encoding     string
	Info         TorrentInfo
}

// TotalLength is the length of the concatenated stream of all files.
func (info *TorrentInfo) TotalLength() int64 {
	if !info.MultiFile {
		return info.Length
	}
	var total int64
	for _, file := range info.Files {
		total += file.Length
	}
	return total
}

func Parse(data []byte) (*TorrentFile, error) {
	dict, err := bencode.DecodeDict(data)
	if err != nil {
		return nil, err
	}
	rawInfo, err := bencode.RawInfo(data)
	if err != nil {
		return nil, ErrNoInfo
	}
	infoHash := sha1.Sum(rawInfo)

	tf := TorrentFile{InfoHash: infoHash[:]}
	tf.Announce, _ = dict["announce"].(string)
	if rawAnnounceList, ok := dict["announce-list"].([]any); ok {
		for _, rawTier := range rawAnnounceList {
			tier, ok := rawTier.([]any)
			if !ok {
				continue
			}
			urls := make([]string, 0, len(tier))
			for _, item := range tier {
				if url, ok := item.(string); ok {
					urls = append(urls, url)
				}
			}
			tf.AnnounceList = append(tf.AnnounceList, urls)
		}
	}
	tf.CreationDate, _ = dict["creation date"].(int64)
	tf.Comment, _ = dict["comment"].(string)
	tf.CreatedBy, _ = dict["created by"].(string)
	tf.Encoding, _ = dict["encoding"].(string)

	infoDict, ok := dict["info"].(map[string]any)
	if !ok {
		return nil, ErrNoInfo
	}
	if err := parseInfo(infoDict, &tf.Info); err != nil {
		return nil, err
	}
	return &tf, nil
}

func parseInfo(infoDict map[string]any, info *TorrentInfo) error {
	var ok bool
	info.Name, ok = infoDict["name"].(string)
	if !ok || info.Name == "" {
		return ErrNoName
	}
	info.PieceLength, ok = infoDict["piece length"].(int64)
	if !ok || info.PieceLength <= 0 {
		return ErrNoPieceLength
	}
	piecesString, ok := infoDict["pieces"].(string)
	if !ok {
		return ErrNoPieces
	}
	if len(piecesString)%HashLength != 0 {
		return fmt.Errorf("pieces length %d not divisible by %d", len(piecesString), HashLength)
	}
	info.Pieces = make([][]byte, 0, len(piecesString)/HashLength)
	for i := 0; i < len(piecesString); i += HashLength {
		info.Pieces = append(info.Pieces, []byte(piecesString[i:i+HashLength]))
	}
	if private, ok := infoDict["private"].(int64); ok {
		info.Private = private != 0
	}

	if length, ok := infoDict["length"].(int64); ok {
		if length < 0 {
			return fmt.Errorf("negative length %d", length)
		}
		info.Length = length
		info.MultiFile = false
		return nil
	}
	files, ok := infoDict["files"].([]any)
	if !ok {
		return ErrNoFiles
	}
	info.MultiFile = true
	for i, file := range files {
		fileItem, ok := file.(map[string]any)
		if !ok {
			return fmt.Errorf("invalid file item %d", i)
		}
		length, ok := fileItem["length"].(int64)
		if !ok || length < 0 {
			return fmt.Errorf("no length in file %d", i)
		}
		pathListInterface, ok := fileItem["path"].([]any)
		if !ok || len(pathListInterface) == 0 {
			return fmt.Errorf("no path in file %d", i)
		}
		pathList := make([]string, 0, len(pathListInterface))
		for _, segment := range pathListInterface {
			pathString, ok := segment.(string)
			if !ok {
				return fmt.Errorf("invalid path list in file %d", i)
			}
			pathList = append(pathList, pathString)
		}
		attr, _ := fileItem["attr"].(string)
		info.Files = append(info.Files, FileInfo{Path: pathList, Length: length, Attr: attr})
	}
	return nil
}

func ParseFile(path string) (*TorrentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tf, nil
}
