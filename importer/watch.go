package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"folio/logger"
)

// DebounceDelay 는 에디터가 한 번 저장할 때 여러 번 발생하는 쓰기 이벤트를 묶는 시간이다.
const DebounceDelay = 300 * time.Millisecond

// Report 는 Watch 가 파일을 다시 가져올 때마다 호출된다.
type Report func(res Result, err error)

// Watch 는 root 아래 Markdown 파일이 만들어지거나 바뀔 때마다 다시 가져온다.
// 새로 생긴 하위 디렉터리도 감시 대상에 추가한다. ctx 가 끝나면 반환한다.
func (im *Importer) Watch(ctx context.Context, root string, report Report) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		pending = map[string]*time.Timer{}
		wg      sync.WaitGroup
	)
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok && t.Stop() {
			wg.Done()
		}
		wg.Add(1)
		pending[path] = time.AfterFunc(DebounceDelay, func() {
			defer wg.Done()
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			if ctx.Err() != nil {
				return
			}
			report(im.ImportFile(ctx, path))
		})
	}
	defer func() {
		mu.Lock()
		for _, t := range pending {
			if t.Stop() {
				wg.Done()
			}
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, ev.Name); err != nil {
						logger.WarnWithFields("failed to watch directory", logger.Fields{"path": ev.Name, "error": err.Error()})
					}
					continue
				}
			}
			if (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && strings.HasSuffix(ev.Name, ".md") {
				schedule(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnWithFields("file watcher error", logger.Fields{"error": err.Error()})
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
