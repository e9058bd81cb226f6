package pkg

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

func ToJson(obj interface{}, purty bool) (string, error) {
	if purty {
		val, err := json.MarshalIndent(obj, "", "    ")
		if err != nil {
			return "", err
		}
		return string(val), nil
	} else {
		val, err := json.Marshal(obj)
		if err != nil {
			return "", err
		}
		return string(val), nil
	}
}

func ListFiles(path string, topOnly bool, relative bool) ([]string, error) {
	var files []string
	if topOnly {
		// Read only the top level of the directory.
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
				// Ignore hidden files
				if relative {
					files = append(files, entry.Name())
				} else {
					files = append(files, filepath.Join(path, entry.Name()))
				}
			}
		}
	} else {
		// Walk through the directory recursively.
		err := filepath.Walk(path, func(currentPath string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			// Skip hidden files and directories
			if strings.HasPrefix(filepath.Base(currentPath), ".") {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.IsDir() {
				if relative {
					relPath, err := filepath.Rel(path, currentPath)
					if err != nil {
						return err
					}
					files = append(files, relPath)
				} else {
					files = append(files, currentPath)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// YesNo - prompt the user for a yes or no response
func YesNo(prompt string, default_yes bool) (bool, error) {
	var default_str string
	if default_yes {
		default_str = "Y"
	} else {
		default_str = "N"
	}
	fmt.Printf("%s [%s]: ", prompt, default_str)
	var response string
	fmt.Scanf("%s", &response)
	// to upper
	response = strings.ToUpper(response)
	if response == "" {
		response = default_str
	}

	if response == "Y" {
		return true, nil
	} else if response == "N" {
		return false, nil
	} else {
		return false, fmt.Errorf("invalid response")
	}
}

// CloneRepo clones repoURL into repoPath. A depth of 0 clones full history.
func CloneRepo(repoURL, repoPath string, depth int, showoutput bool) (*git.Repository, error) {
	cloneoptions := &git.CloneOptions{
		URL: repoURL,
	}
	if depth > 0 {
		cloneoptions.Depth = depth
	}

	if showoutput {
		// output clone status to stdout
		cloneoptions.Progress = os.Stdout
	}

	repo, err := git.PlainClone(repoPath, false, cloneoptions)

	if err != nil {
		return nil, err
	}

	return repo, nil
}

// create a slice of strings that contains all the unique strings from s1 and s2
func UnionStringSlices(s1 []string, s2 []string) []string {
	m := make(map[string]bool)
	for _, s := range s1 {
		m[s] = true
	}
	for _, s := range s2 {
		m[s] = true
	}
	retv := make([]string, 0)
	for k := range m {
		retv = append(retv, k)
	}
	return retv
}
